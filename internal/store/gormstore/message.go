package gormstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dkozlov/converse/internal/domain"
)

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (s *MessageStore) MarkConversationRead(senderID, receiverID domain.UserID) (int64, error) {
	now := time.Now()
	res := s.db.Model(&domain.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", senderID, receiverID, false).
		Updates(map[string]any{"read": true, "read_at": now})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *MessageStore) DeleteByGroup(id domain.GroupID) error {
	if err := s.db.Delete(&domain.Message{}, "group_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete group messages: %w", err)
	}
	return nil
}
