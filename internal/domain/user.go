// Package domain contains the persisted entities and identifier types.
// No transport or storage logic lives here.
package domain

import "time"

type UserID string

type User struct {
	ID       UserID     `gorm:"primaryKey" json:"id"`
	Username string     `json:"username"`
	Online   bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}
