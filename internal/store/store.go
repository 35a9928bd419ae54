// Package store declares the durable collaborator interfaces the live core
// consumes. Implementations live in gormstore.
package store

import (
	"errors"
	"time"

	"github.com/dkozlov/converse/internal/domain"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrGroupFull is returned when an insert would exceed the configured
	// group member ceiling. Checked before any write.
	ErrGroupFull = errors.New("group member limit reached")
	// ErrSoleAdmin is returned when removing a member would leave a
	// non-empty group without any admin.
	ErrSoleAdmin = errors.New("cannot remove the only admin")
)

type MessageStore interface {
	Create(m *domain.Message) error
	// MarkConversationRead flips every unread senderID→receiverID message
	// to read with a read timestamp and reports how many rows changed.
	MarkConversationRead(senderID, receiverID domain.UserID) (int64, error)
	DeleteByGroup(id domain.GroupID) error
}

type GroupStore interface {
	Create(g *domain.Group) error
	FindByID(id domain.GroupID) (*domain.Group, error)
	FindByUser(id domain.UserID) ([]*domain.Group, error)
	AddMembers(id domain.GroupID, userIDs []domain.UserID) error
	RemoveMember(id domain.GroupID, userID domain.UserID) error
	SetAdmin(id domain.GroupID, userID domain.UserID, admin bool) error
	Delete(id domain.GroupID) error
}

type UserStore interface {
	FindByID(id domain.UserID) (*domain.User, error)
	SetOnlineStatus(id domain.UserID, online bool, lastSeen *time.Time) error
}
