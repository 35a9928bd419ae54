package gormstore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dkozlov/converse/internal/domain"
	"github.com/dkozlov/converse/internal/store"
)

type GroupStore struct {
	db *gorm.DB
	// maxMembers is the group size ceiling enforced at the persistence
	// boundary, before any write.
	maxMembers int
}

func NewGroupStore(db *gorm.DB, maxMembers int) *GroupStore {
	return &GroupStore{db: db, maxMembers: maxMembers}
}

func (s *GroupStore) Create(g *domain.Group) error {
	if len(g.Members) > s.maxMembers {
		return store.ErrGroupFull
	}
	if g.ID == "" {
		g.ID = domain.GroupID(uuid.NewString())
	}
	for i := range g.Members {
		g.Members[i].GroupID = g.ID
	}
	if err := s.db.Create(g).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (s *GroupStore) FindByID(id domain.GroupID) (*domain.Group, error) {
	var g domain.Group
	if err := s.db.Preload("Members").First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return &g, nil
}

func (s *GroupStore) FindByUser(id domain.UserID) ([]*domain.Group, error) {
	var memberships []domain.GroupMember
	if err := s.db.Find(&memberships, "user_id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to find memberships: %w", err)
	}
	groups := make([]*domain.Group, 0, len(memberships))
	for _, m := range memberships {
		g, err := s.FindByID(m.GroupID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *GroupStore) AddMembers(id domain.GroupID, userIDs []domain.UserID) error {
	g, err := s.FindByID(id)
	if err != nil {
		return err
	}
	added := make([]domain.GroupMember, 0, len(userIDs))
	for _, uid := range userIDs {
		if g.HasMember(uid) {
			continue
		}
		added = append(added, domain.GroupMember{GroupID: id, UserID: uid})
	}
	if len(added) == 0 {
		return nil
	}
	if len(g.Members)+len(added) > s.maxMembers {
		return store.ErrGroupFull
	}
	if err := s.db.Create(&added).Error; err != nil {
		return fmt.Errorf("failed to add members: %w", err)
	}
	return nil
}

func (s *GroupStore) RemoveMember(id domain.GroupID, userID domain.UserID) error {
	g, err := s.FindByID(id)
	if err != nil {
		return err
	}
	if !g.HasMember(userID) {
		return store.ErrNotFound
	}
	if g.IsAdmin(userID) && g.AdminCount() == 1 && len(g.Members) > 1 {
		return store.ErrSoleAdmin
	}
	res := s.db.Delete(&domain.GroupMember{}, "group_id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return fmt.Errorf("failed to remove member: %w", res.Error)
	}
	return nil
}

func (s *GroupStore) SetAdmin(id domain.GroupID, userID domain.UserID, admin bool) error {
	res := s.db.Model(&domain.GroupMember{}).
		Where("group_id = ? AND user_id = ?", id, userID).
		Update("admin", admin)
	if res.Error != nil {
		return fmt.Errorf("failed to set admin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GroupStore) Delete(id domain.GroupID) error {
	if err := s.db.Delete(&domain.GroupMember{}, "group_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	res := s.db.Delete(&domain.Group{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete group: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
