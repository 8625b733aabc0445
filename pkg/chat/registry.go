package chat

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrSinkClosed is returned by a Sink once it has been closed, including
// when a newer registration displaced it.
var ErrSinkClosed = errors.New("sink closed")

// Sink is a send-capable handle to one live connection. Implementations must
// be safe for concurrent Send and Close.
type Sink interface {
	Send(data []byte) error
	Close() error
}

type Outcome int

const (
	Delivered Outcome = iota
	// PeerOffline is not an error: the peer simply misses live delivery and
	// catches up from history on its next connect.
	PeerOffline
)

// Registration is the capability handed back by Register. It identifies one
// live entry; a later registration for the same key invalidates it.
type Registration struct {
	roomID string
	userID string
	sink   Sink
}

// Registry is the single source of truth for who is live, where, keyed by
// (room, participant). It is the only shared mutable structure in the
// subsystem; every operation takes the one mutex, so register, deregister
// and deliver on a key are serialized and deliver never observes a handle
// mid-teardown.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]map[string]*Registration
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]*Registration),
		logger: logger,
	}
}

// Register associates sink with (roomID, userID). An existing live entry for
// the same key is displaced: its sink is closed so the old socket tears down
// instead of lingering untracked.
func (r *Registry) Register(roomID, userID string, sink Sink) *Registration {
	reg := &Registration{roomID: roomID, userID: userID, sink: sink}

	r.mu.Lock()
	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]*Registration)
		r.rooms[roomID] = room
	}
	old, displaced := room[userID]
	room[userID] = reg
	r.mu.Unlock()

	if displaced {
		r.logger.Info("displacing live connection", "room", roomID, "user", userID)
		if err := old.sink.Close(); err != nil {
			r.logger.Warn("closing displaced sink", "room", roomID, "error", err)
		}
	}

	return reg
}

// Deregister removes reg if it still owns its key. It is idempotent and a
// no-op when the key has since been taken by a newer registration.
func (r *Registry) Deregister(reg *Registration) {
	if reg == nil {
		return
	}

	r.mu.Lock()
	if room, ok := r.rooms[reg.roomID]; ok && room[reg.userID] == reg {
		delete(room, reg.userID)
		if len(room) == 0 {
			delete(r.rooms, reg.roomID)
		}
	}
	r.mu.Unlock()
}

// Deliver pushes data to the room participant other than senderID, if live.
// The entry is resolved under the lock; the send itself happens outside it
// so one slow socket cannot stall the registry. A sink closed between the
// two reports the miss through its own Send error.
func (r *Registry) Deliver(roomID, senderID string, data []byte) Outcome {
	r.mu.Lock()
	var peer *Registration
	for userID, reg := range r.rooms[roomID] {
		if userID != senderID {
			peer = reg
			break
		}
	}
	r.mu.Unlock()

	if peer == nil {
		return PeerOffline
	}

	if err := peer.sink.Send(data); err != nil {
		r.logger.Warn("live delivery failed", "room", roomID, "peer", peer.userID, "error", err)
		return PeerOffline
	}
	return Delivered
}
