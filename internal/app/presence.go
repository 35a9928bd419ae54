// Package app holds the in-memory registries and the services that route
// events between live connections and the durable stores.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
)

// Presence maps user identity to the one active session for that user.
// It is the single source of truth for "is this user reachable now".
type Presence struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]*core.Session
}

func NewPresence() *Presence {
	return &Presence{byUser: make(map[domain.UserID]*core.Session)}
}

// Bind installs the session as the active one for its user and returns the
// session it displaced, if any. The caller owns closing the evicted session.
func (p *Presence) Bind(s *core.Session) (evicted *core.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	evicted = p.byUser[s.User.ID]
	p.byUser[s.User.ID] = s
	log.Info().Str("module", "app.presence").Str("user", string(s.User.ID)).Str("conn", string(s.ID)).Msg("bound session")
	return evicted
}

// Unbind removes the entry for the user only when it still points at the
// given connection. Returns false when the entry was already replaced by a
// newer session, in which case the user is still online.
func (p *Presence) Unbind(userID domain.UserID, connID core.ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.byUser[userID]
	if !ok || s.ID != connID {
		return false
	}
	delete(p.byUser, userID)
	log.Info().Str("module", "app.presence").Str("user", string(userID)).Str("conn", string(connID)).Msg("unbound session")
	return true
}

func (p *Presence) Get(userID domain.UserID) (*core.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.byUser[userID]
	return s, ok
}

func (p *Presence) IsOnline(userID domain.UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byUser[userID]
	return ok
}

func (p *Presence) OnlineIDs() []domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]domain.UserID, 0, len(p.byUser))
	for id := range p.byUser {
		ids = append(ids, id)
	}
	return ids
}

// Sessions returns a snapshot of every live session.
func (p *Presence) Sessions() []*core.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*core.Session, 0, len(p.byUser))
	for _, s := range p.byUser {
		out = append(out, s)
	}
	return out
}
