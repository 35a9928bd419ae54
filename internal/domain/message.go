package domain

import "time"

// Message is the persisted record derived from a validated intent.
// Exactly one of ReceiverID/GroupID is set.
type Message struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	SenderID   UserID     `gorm:"index" json:"senderId"`
	ReceiverID UserID     `gorm:"index" json:"receiverId,omitempty"`
	GroupID    GroupID    `gorm:"index" json:"groupId,omitempty"`
	Content    string     `json:"content"`
	Type       string     `json:"messageType"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
