// Package core defines the session and transport abstractions shared by the
// registries and the websocket adapter.
package core

import (
	"encoding/json"
	"time"

	"github.com/dkozlov/converse/internal/domain"
)

// Frame is a raw outbound payload.
type Frame []byte

// ConnID identifies one transport connection for its lifetime.
type ConnID string

// Sender abstracts the outbound side of a live connection.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	// TrySend enqueues a frame without blocking. It fails when the
	// connection is closed or its send buffer is full.
	TrySend(Frame) error
	Close()
}

// Session binds an authenticated user to its live transport endpoint.
// This is what the presence registry and rooms store and fan out to.
type Session struct {
	ID       ConnID
	User     *domain.User
	OpenedAt time.Time

	conn Sender
}

func NewSession(id ConnID, user *domain.User, conn Sender) *Session {
	return &Session{ID: id, User: user, OpenedAt: time.Now(), conn: conn}
}

// Send marshals v and enqueues it. A full buffer or closed connection drops
// the frame; delivery to other recipients is never affected.
func (s *Session) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.TrySend(Frame(b))
}

func (s *Session) Close() {
	s.conn.Close()
}
