package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
	"github.com/dkozlov/converse/internal/store"
)

// fakeSender captures frames so tests can assert on delivered events.
type fakeSender struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeSender) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// events decodes every captured frame into a generic map.
func (f *fakeSender) events() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// eventsOfType filters captured events by their type field.
func (f *fakeSender) eventsOfType(t string) []map[string]any {
	var out []map[string]any
	for _, e := range f.events() {
		if e["type"] == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestSession(connID, userID, username string) (*core.Session, *fakeSender) {
	snd := &fakeSender{}
	user := &domain.User{ID: domain.UserID(userID), Username: username}
	return core.NewSession(core.ConnID(connID), user, snd), snd
}

type fakeMessageStore struct {
	mu         sync.Mutex
	created    []*domain.Message
	createErr  error
	readCount  int64
	markErr    error
	markCalls  [][2]domain.UserID
	deletedFor []domain.GroupID
}

func (f *fakeMessageStore) Create(m *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	m.ID = fmt.Sprintf("m%d", len(f.created)+1)
	m.CreatedAt = time.Now()
	f.created = append(f.created, m)
	return nil
}

func (f *fakeMessageStore) MarkConversationRead(senderID, receiverID domain.UserID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return 0, f.markErr
	}
	f.markCalls = append(f.markCalls, [2]domain.UserID{senderID, receiverID})
	return f.readCount, nil
}

func (f *fakeMessageStore) DeleteByGroup(id domain.GroupID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFor = append(f.deletedFor, id)
	return nil
}

type fakeGroupStore struct {
	mu      sync.Mutex
	groups  map[domain.GroupID]*domain.Group
	nextID  int
	deleted []domain.GroupID
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[domain.GroupID]*domain.Group)}
}

func (f *fakeGroupStore) Create(g *domain.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = domain.GroupID(fmt.Sprintf("g%d", f.nextID))
	for i := range g.Members {
		g.Members[i].GroupID = g.ID
	}
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroupStore) FindByID(id domain.GroupID) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	cp.Members = append([]domain.GroupMember(nil), g.Members...)
	return &cp, nil
}

func (f *fakeGroupStore) FindByUser(id domain.UserID) ([]*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Group
	for _, g := range f.groups {
		if g.HasMember(id) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGroupStore) AddMembers(id domain.GroupID, userIDs []domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, uid := range userIDs {
		if !g.HasMember(uid) {
			g.Members = append(g.Members, domain.GroupMember{GroupID: id, UserID: uid})
		}
	}
	return nil
}

func (f *fakeGroupStore) RemoveMember(id domain.GroupID, userID domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	for i, m := range g.Members {
		if m.UserID == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeGroupStore) SetAdmin(id domain.GroupID, userID domain.UserID, admin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	for i, m := range g.Members {
		if m.UserID == userID {
			g.Members[i].Admin = admin
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeGroupStore) Delete(id domain.GroupID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.groups, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type statusWrite struct {
	userID   domain.UserID
	online   bool
	lastSeen *time.Time
}

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[domain.UserID]*domain.User
	writes []statusWrite
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[domain.UserID]*domain.User)}
}

func (f *fakeUserStore) FindByID(id domain.UserID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) SetOnlineStatus(id domain.UserID, online bool, lastSeen *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, statusWrite{userID: id, online: online, lastSeen: lastSeen})
	return nil
}

func (f *fakeUserStore) statusWrites() []statusWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]statusWrite(nil), f.writes...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
