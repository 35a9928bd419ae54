package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
)

// Rooms maps group identity to the set of connections subscribed for
// broadcast. It is a best-effort mirror of persisted membership, refreshed at
// connect time and on group operations flowing through the live path;
// authorization must consult the group store, never this table.
//
// A reverse index (connection → rooms) makes connection exit O(rooms of that
// connection).
type Rooms struct {
	mu      sync.RWMutex
	byGroup map[domain.GroupID]map[core.ConnID]*core.Session
	byConn  map[core.ConnID]map[domain.GroupID]bool
}

func NewRooms() *Rooms {
	return &Rooms{
		byGroup: make(map[domain.GroupID]map[core.ConnID]*core.Session),
		byConn:  make(map[core.ConnID]map[domain.GroupID]bool),
	}
}

func (r *Rooms) Join(s *core.Session, id domain.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byGroup[id] == nil {
		r.byGroup[id] = make(map[core.ConnID]*core.Session)
	}
	r.byGroup[id][s.ID] = s
	if r.byConn[s.ID] == nil {
		r.byConn[s.ID] = make(map[domain.GroupID]bool)
	}
	r.byConn[s.ID][id] = true
	log.Debug().Str("module", "app.rooms").Str("group", string(id)).Str("conn", string(s.ID)).Msg("joined room")
}

func (r *Rooms) Leave(connID core.ConnID, id domain.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, id)
}

// LeaveAll removes the connection from every room it is subscribed to.
// Called unconditionally on connection exit.
func (r *Rooms) LeaveAll(connID core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.byConn[connID] {
		r.leaveLocked(connID, id)
	}
}

func (r *Rooms) leaveLocked(connID core.ConnID, id domain.GroupID) {
	if members, ok := r.byGroup[id]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.byGroup, id)
		}
	}
	if rooms, ok := r.byConn[connID]; ok {
		delete(rooms, id)
		if len(rooms) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// Sessions returns a snapshot of the connections currently in the room.
func (r *Rooms) Sessions(id domain.GroupID) []*core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.byGroup[id]
	out := make([]*core.Session, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	return out
}

// Broadcast fans an event out to every connection in the room except the
// one identified by except. Send failures (closed or saturated connections)
// are dropped without affecting the other recipients.
func (r *Rooms) Broadcast(id domain.GroupID, except core.ConnID, v any) int {
	sent := 0
	for _, s := range r.Sessions(id) {
		if s.ID == except {
			continue
		}
		if err := s.Send(v); err != nil {
			log.Debug().Err(err).Str("module", "app.rooms").Str("conn", string(s.ID)).Msg("dropped broadcast frame")
			continue
		}
		sent++
	}
	return sent
}
