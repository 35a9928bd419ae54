package gormstore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dkozlov/converse/internal/domain"
	"github.com/dkozlov/converse/internal/store"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByID(id domain.UserID) (*domain.User, error) {
	var u domain.User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) SetOnlineStatus(id domain.UserID, online bool, lastSeen *time.Time) error {
	updates := map[string]any{"online": online}
	if lastSeen != nil {
		updates["last_seen"] = *lastSeen
	}
	res := s.db.Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update online status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
