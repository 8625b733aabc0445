package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"diarychat/pkg/friend"
	"diarychat/pkg/message"
	"diarychat/pkg/token"
)

// TokenVerifier is the slice of the token authority a session needs.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string, kind token.Kind) (string, error)
}

// Directory resolves a user id to the display name used in sender labels.
type Directory interface {
	DisplayName(userID string) (string, error)
}

type State int

const (
	StateConnecting State = iota
	StateAuthorizing
	StateReplaying
	StateLive
	StateClosing
	StateClosed
)

// SessionConfig carries the collaborators a session is wired with.
type SessionConfig struct {
	Registry *Registry
	Store    message.Store
	Tokens   TokenVerifier
	Friends  friend.Authorizer
	Users    Directory
	Logger   *slog.Logger
}

// Session drives one live connection through
// Connecting → Authorizing → Replaying → Live → Closing → Closed.
// All fields are owned by the session's goroutine; the registry is the only
// thing it shares.
type Session struct {
	conn     *websocket.Conn
	sink     *connSink
	rawToken string
	peerID   string

	cfg SessionConfig

	state    State
	userID   string
	userName string
	peerName string
	roomID   string
}

// NewSession wraps an already-upgraded connection. rawToken came from the
// handshake metadata (header or query parameter) and peerID from the path.
func NewSession(conn *websocket.Conn, rawToken, peerID string, cfg SessionConfig) *Session {
	return &Session{
		conn:     conn,
		sink:     newConnSink(conn),
		rawToken: rawToken,
		peerID:   peerID,
		cfg:      cfg,
		state:    StateConnecting,
	}
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Run executes the session to completion and always leaves it Closed with
// the connection released. It never panics the process: transport errors and
// store failures are absorbed into the state machine.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	if !s.authorize(ctx) {
		return
	}
	if !s.replay(ctx) {
		return
	}

	reg := s.cfg.Registry.Register(s.roomID, s.userID, s.sink)
	defer s.cfg.Registry.Deregister(reg)

	s.state = StateLive
	s.cfg.Logger.Info("chat session live", "room", s.roomID, "user", s.userID)

	s.liveLoop(ctx)
}

// authorize verifies the token and the friendship. Any failure closes the
// handshake with a policy-violation signal: no history, nothing registered.
func (s *Session) authorize(ctx context.Context) bool {
	s.state = StateAuthorizing

	userID, err := s.cfg.Tokens.Verify(ctx, s.rawToken, token.KindAccess)
	if err != nil {
		s.cfg.Logger.Info("chat handshake rejected", "reason", err)
		s.reject(websocket.ClosePolicyViolation, "unauthorized")
		return false
	}

	roomID, err := s.cfg.Friends.Authorize(userID, s.peerID)
	if err != nil {
		if !errors.Is(err, friend.ErrNotFriends) {
			s.cfg.Logger.Error("friendship lookup", "user", userID, "error", err)
		}
		s.reject(websocket.ClosePolicyViolation, "forbidden")
		return false
	}

	// Fixed for the rest of the session.
	s.userID = userID
	s.roomID = roomID

	s.userName = s.displayName(userID)
	s.peerName = s.displayName(s.peerID)
	return true
}

// replay sends the room's history to the client, oldest first, each frame
// labelled from this reader's perspective.
func (s *Session) replay(ctx context.Context) bool {
	s.state = StateReplaying

	history, err := s.cfg.Store.History(ctx, s.roomID)
	if err != nil {
		s.cfg.Logger.Error("history replay", "room", s.roomID, "error", err)
		s.reject(websocket.CloseInternalServerErr, "history unavailable")
		return false
	}

	for _, msg := range history {
		label := s.peerName
		if msg.SenderID == s.userID {
			label = SelfLabel
		}
		if err := s.sink.Send(EncodeOutbound(label, msg.Body)); err != nil {
			return false
		}
	}
	return true
}

// liveLoop handles inbound messages one at a time: persist, echo, deliver,
// strictly in that order so nothing is shown as sent before it is durable.
// A store failure is fatal to that one exchange, not to the session.
func (s *Session) liveLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// Client disconnect, network failure, or our sink was closed by
			// a displacing registration.
			s.state = StateClosing
			return
		}

		frame := DecodeInbound(data)
		if frame.Empty() {
			if err := s.sink.Send(EncodeError("empty message")); err != nil {
				s.state = StateClosing
				return
			}
			continue
		}

		msg, err := s.cfg.Store.Append(ctx, s.roomID, s.userID, frame.Body)
		if err != nil {
			s.cfg.Logger.Error("message append", "room", s.roomID, "error", err)
			if err := s.sink.Send(EncodeError("message not sent")); err != nil {
				s.state = StateClosing
				return
			}
			continue
		}

		if err := s.sink.Send(EncodeOutbound(SelfLabel, msg.Body)); err != nil {
			s.state = StateClosing
			return
		}

		if outcome := s.cfg.Registry.Deliver(s.roomID, s.userID, EncodeOutbound(s.userName, msg.Body)); outcome == PeerOffline {
			s.cfg.Logger.Debug("peer offline", "room", s.roomID)
		}
	}
}

func (s *Session) displayName(userID string) string {
	name, err := s.cfg.Users.DisplayName(userID)
	if err != nil {
		s.cfg.Logger.Warn("display name lookup", "user", userID, "error", err)
		return userID
	}
	return name
}

func (s *Session) reject(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		s.cfg.Logger.Debug("close message", "error", err)
	}
}

func (s *Session) close() {
	if err := s.sink.Close(); err != nil {
		s.cfg.Logger.Warn("closing connection", "error", err)
	}
	s.state = StateClosed
}
