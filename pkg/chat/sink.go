package chat

import (
	"sync"

	"github.com/gorilla/websocket"
)

// connSink wraps a websocket connection as a Sink. The mutex serializes
// writes from the owning session and from peer deliveries; gorilla conns
// allow only one concurrent writer.
type connSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newConnSink(conn *websocket.Conn) *connSink {
	return &connSink{conn: conn}
}

func (s *connSink) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close is idempotent. Closing the underlying conn also unblocks the owning
// session's read loop, which is how displacement tears the old session down.
func (s *connSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
