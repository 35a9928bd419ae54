package app

import (
	"errors"
	"testing"

	"github.com/dkozlov/converse/internal/domain"
)

func newGroupService(groups *fakeGroupStore, msgs *fakeMessageStore, maxMembers int) (*GroupService, *Presence, *Rooms) {
	p := NewPresence()
	r := NewRooms()
	return &GroupService{Presence: p, Rooms: r, Groups: groups, Messages: msgs, MaxMembers: maxMembers}, p, r
}

func TestCreateGroupJoinsLiveMembers(t *testing.T) {
	groups := newFakeGroupStore()
	svc, p, r := newGroupService(groups, &fakeMessageStore{}, 16)

	creator, _ := newTestSession("c1", "alice", "Alice")
	bob, sb := newTestSession("c2", "bob", "Bob")
	p.Bind(creator)
	p.Bind(bob)

	g, err := svc.Create(creator, "team", []domain.UserID{"bob", "carol"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !g.IsAdmin("alice") {
		t.Error("creator should be admin")
	}
	if len(g.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(g.Members))
	}
	// Live members join the room and hear about the group; offline carol
	// picks it up at reconnect.
	if len(r.Sessions(g.ID)) != 2 {
		t.Errorf("expected 2 room subscriptions, got %d", len(r.Sessions(g.ID)))
	}
	if len(sb.eventsOfType("group-created")) != 1 {
		t.Error("bob should receive group-created")
	}
}

func TestCreateGroupDeduplicatesMembers(t *testing.T) {
	groups := newFakeGroupStore()
	svc, p, _ := newGroupService(groups, &fakeMessageStore{}, 16)
	creator, _ := newTestSession("c1", "alice", "Alice")
	p.Bind(creator)

	g, err := svc.Create(creator, "team", []domain.UserID{"alice", "bob", "bob", ""})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(g.Members) != 2 {
		t.Fatalf("expected alice+bob, got %d members", len(g.Members))
	}
}

func TestCreateGroupCeilingRejectedBeforeWrite(t *testing.T) {
	groups := newFakeGroupStore()
	svc, p, _ := newGroupService(groups, &fakeMessageStore{}, 3)
	creator, _ := newTestSession("c1", "alice", "Alice")
	p.Bind(creator)

	_, err := svc.Create(creator, "big", []domain.UserID{"b", "c", "d"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(groups.groups) != 0 {
		t.Error("nothing may be persisted when the ceiling is exceeded")
	}
}

func TestLeaveReassignsSoleAdmin(t *testing.T) {
	groups := newFakeGroupStore()
	svc, p, r := newGroupService(groups, &fakeMessageStore{}, 16)

	g := &domain.Group{Name: "team", Members: []domain.GroupMember{
		{UserID: "alice", Admin: true}, {UserID: "bob"},
	}}
	if err := groups.Create(g); err != nil {
		t.Fatal(err)
	}
	alice, _ := newTestSession("c1", "alice", "Alice")
	p.Bind(alice)
	r.Join(alice, g.ID)

	if err := svc.Leave(alice, g.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	after, err := groups.FindByID(g.ID)
	if err != nil {
		t.Fatalf("group should survive: %v", err)
	}
	if len(after.Members) != 1 || after.Members[0].UserID != "bob" {
		t.Fatalf("unexpected members after leave: %+v", after.Members)
	}
	if !after.IsAdmin("bob") {
		t.Error("admin role should be reassigned to bob")
	}
	if len(r.Sessions(g.ID)) != 0 {
		t.Error("leaver's connection should exit the room")
	}
}

func TestLeaveLastMemberDeletesGroupAndMessages(t *testing.T) {
	groups := newFakeGroupStore()
	msgs := &fakeMessageStore{}
	svc, p, r := newGroupService(groups, msgs, 16)

	g := &domain.Group{Name: "solo", Members: []domain.GroupMember{{UserID: "alice", Admin: true}}}
	if err := groups.Create(g); err != nil {
		t.Fatal(err)
	}
	alice, _ := newTestSession("c1", "alice", "Alice")
	p.Bind(alice)
	r.Join(alice, g.ID)

	if err := svc.Leave(alice, g.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if _, err := groups.FindByID(g.ID); err == nil {
		t.Error("empty group should be deleted")
	}
	if len(msgs.deletedFor) != 1 || msgs.deletedFor[0] != g.ID {
		t.Errorf("group messages should be deleted, got %v", msgs.deletedFor)
	}
}

func TestLeaveNonMemberRejected(t *testing.T) {
	groups := newFakeGroupStore()
	svc, p, _ := newGroupService(groups, &fakeMessageStore{}, 16)

	g := &domain.Group{Name: "team", Members: []domain.GroupMember{{UserID: "alice", Admin: true}}}
	if err := groups.Create(g); err != nil {
		t.Fatal(err)
	}
	outsider, _ := newTestSession("c9", "mallory", "Mallory")
	p.Bind(outsider)

	if err := svc.Leave(outsider, g.ID); !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}
