package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"diarychat/pkg/chat"
	"diarychat/pkg/friend"
	"diarychat/pkg/message"
	"diarychat/pkg/middleware"
	"diarychat/pkg/token"
)

const (
	typeError      string = "error"
	typeMessage    string = "message"
	muxVarFriendID string = "friend_id"
)

type SendForm struct {
	FriendID string `json:"friend_id"`
	Message  string `json:"message"`
}

type ChatHandler struct {
	Registry *chat.Registry
	Store    message.Store
	Tokens   chat.TokenVerifier
	Friends  friend.Authorizer
	Users    chat.Directory
	Upgrader websocket.Upgrader
	Logger   *slog.Logger
}

func NewChatHandler(
	registry *chat.Registry,
	store message.Store,
	tokens chat.TokenVerifier,
	friends friend.Authorizer,
	users chat.Directory,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		Registry: registry,
		Store:    store,
		Tokens:   tokens,
		Friends:  friends,
		Users:    users,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		Logger: logger,
	}
}

// Connect upgrades the request and hands the socket to a chat session. The
// session itself authenticates and authorizes; a rejected handshake closes
// with a policy-violation code and leaves nothing registered.
func (h *ChatHandler) Connect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	friendID, ok := vars[muxVarFriendID]
	if !ok {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid friend id")
		return
	}

	rawToken := middleware.ExtractToken(r)

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade", "error", err)
		return
	}

	session := chat.NewSession(conn, rawToken, friendID, chat.SessionConfig{
		Registry: h.Registry,
		Store:    h.Store,
		Tokens:   h.Tokens,
		Friends:  h.Friends,
		Users:    h.Users,
		Logger:   h.Logger,
	})
	session.Run(r.Context())
}

// SendMessage is the out-of-band path: persist and attempt live delivery
// without requiring the sender to hold an open connection.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req SendForm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("invalid json", "error", err)
		writeError(w, http.StatusBadRequest, typeError, "invalid JSON payload")
		return
	}

	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, typeMessage, "empty message")
		return
	}

	roomID, err := h.Friends.Authorize(userID, req.FriendID)
	if err != nil {
		if errors.Is(err, friend.ErrNotFriends) {
			writeError(w, http.StatusForbidden, typeMessage, "not friends")
			return
		}
		h.Logger.Error("friendship lookup", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "authorization failed")
		return
	}

	msg, err := h.Store.Append(r.Context(), roomID, userID, req.Message)
	if err != nil {
		// Not silently dropped: the client is told the message did not go
		// through and may retry.
		h.Logger.Error("message append", "room", roomID, "error", err)
		writeError(w, http.StatusServiceUnavailable, typeError, "message not sent")
		return
	}

	senderName, err := h.Users.DisplayName(userID)
	if err != nil {
		h.Logger.Warn("display name lookup", "user", userID, "error", err)
		senderName = userID
	}

	outcome := h.Registry.Deliver(roomID, userID, chat.EncodeOutbound(senderName, msg.Body))

	body := map[string]any{
		"status":    "success",
		"delivered": outcome == chat.Delivered,
		"message":   msg,
	}
	if ok := WriteResp(w, h.Logger, body, http.StatusOK); ok {
		h.Logger.Info("message sent", "room", roomID, "user", userID)
	}
}

// History returns the stored conversation with a friend, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	friendID, ok := vars[muxVarFriendID]
	if !ok {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid friend id")
		return
	}

	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	roomID, err := h.Friends.Authorize(userID, friendID)
	if err != nil {
		if errors.Is(err, friend.ErrNotFriends) {
			writeError(w, http.StatusForbidden, typeMessage, "not friends")
			return
		}
		h.Logger.Error("friendship lookup", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "authorization failed")
		return
	}

	history, err := h.Store.History(r.Context(), roomID)
	if err != nil {
		h.Logger.Error("history fetch", "room", roomID, "error", err)
		writeError(w, http.StatusServiceUnavailable, typeError, "history unavailable")
		return
	}
	if history == nil {
		history = []*message.Message{}
	}

	writeJSON(w, h.Logger, history)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, data any) bool {
	resp, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to serialize JSON response", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "failed json marshal")
		return false
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(resp); err != nil {
		logger.Error("Failed to write response to client", "error", err)
		return false
	}
	return true
}

func getUserIDFromContext(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(token.UserIDContextKey).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, typeMessage, "unauthorized")
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, field, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{field: msg}); err != nil {
		return
	}
}
