package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
	"github.com/dkozlov/converse/internal/store"
)

// GroupService handles group mutations arriving over the live path and keeps
// the room table in step with them. Mutations performed by the management
// API do not flow through here and are not pushed into live subscriptions;
// members pick them up at reconnect.
type GroupService struct {
	Presence *Presence
	Rooms    *Rooms
	Groups   store.GroupStore
	Messages store.MessageStore

	// MaxMembers is the group size ceiling, checked before any write.
	MaxMembers int
}

// Create persists a new group with the creator as admin, joins every
// member's live connection to the room, and tells them about it.
func (s *GroupService) Create(creator *core.Session, name string, memberIDs []domain.UserID) (*domain.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty group name", domain.ErrValidation)
	}

	members := []domain.GroupMember{{UserID: creator.User.ID, Admin: true}}
	seen := map[domain.UserID]bool{creator.User.ID: true}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, domain.GroupMember{UserID: id})
	}
	if len(members) > s.MaxMembers {
		return nil, fmt.Errorf("%w: group size exceeds limit of %d", domain.ErrValidation, s.MaxMembers)
	}

	group := &domain.Group{Name: name, Members: members}
	if err := s.Groups.Create(group); err != nil {
		if errors.Is(err, store.ErrGroupFull) {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	evt := groupCreated(group)
	for _, m := range group.Members {
		sess, ok := s.Presence.Get(m.UserID)
		if !ok {
			continue
		}
		s.Rooms.Join(sess, group.ID)
		if err := sess.Send(evt); err != nil {
			log.Debug().Err(err).Str("module", "app.groups").Str("user", string(m.UserID)).Msg("dropped group-created frame")
		}
	}
	log.Info().Str("module", "app.groups").Str("group", string(group.ID)).Int("members", len(group.Members)).Msg("group created")
	return group, nil
}

// Leave removes the user from the group entirely. A sole admin leaving hands
// the role to another remaining member; a group left with no members is
// deleted together with all its persisted messages.
func (s *GroupService) Leave(leaver *core.Session, groupID domain.GroupID) error {
	group, err := s.Groups.FindByID(groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown group", domain.ErrValidation)
		}
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !group.HasMember(leaver.User.ID) {
		return fmt.Errorf("%w: not a member of this group", domain.ErrAuthorization)
	}

	if len(group.Members) == 1 {
		if err := s.Messages.DeleteByGroup(groupID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		if err := s.Groups.Delete(groupID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		s.Rooms.Leave(leaver.ID, groupID)
		log.Info().Str("module", "app.groups").Str("group", string(groupID)).Msg("group deleted with last member")
		return nil
	}

	if group.IsAdmin(leaver.User.ID) && group.AdminCount() == 1 {
		successor := pickSuccessor(group, leaver.User.ID)
		if err := s.Groups.SetAdmin(groupID, successor, true); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		log.Info().Str("module", "app.groups").Str("group", string(groupID)).Str("admin", string(successor)).Msg("admin role reassigned")
	}
	if err := s.Groups.RemoveMember(groupID, leaver.User.ID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	s.Rooms.Leave(leaver.ID, groupID)
	log.Info().Str("module", "app.groups").Str("group", string(groupID)).Str("user", string(leaver.User.ID)).Msg("left group")
	return nil
}

func pickSuccessor(g *domain.Group, leaving domain.UserID) domain.UserID {
	for _, m := range g.Members {
		if m.UserID != leaving {
			return m.UserID
		}
	}
	return ""
}
