package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the slice of a websocket connection the session needs. Tests
// substitute an in-memory implementation.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one live client connection. A user may hold several sessions at
// once (multi-tab); the registry tracks sessions, not users.
//
// Outbound frames go through a bounded send queue drained by WritePump. Push
// never blocks: when the queue is full the session is considered too slow and
// gets disconnected by the caller.
type Session struct {
	ID   string
	conn Conn

	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewSession wraps a connection with a fresh session id and a send queue of
// the given capacity.
func NewSession(conn Conn, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 1
	}
	return &Session{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Push queues data for delivery. It reports false when the session is closed
// or its queue is full; it never blocks.
func (s *Session) Push(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// WritePump drains the send queue onto the connection until the session is
// closed or a write fails.
func (s *Session) WritePump() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.Close()
				return
			}
		}
	}
}

// Close shuts the session down. Safe to call from any goroutine, any number
// of times. Closing the connection also unblocks the session's read loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
