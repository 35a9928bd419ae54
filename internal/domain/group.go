package domain

import "time"

type GroupID string

type Group struct {
	ID        GroupID       `gorm:"primaryKey" json:"id"`
	Name      string        `json:"name"`
	Members   []GroupMember `gorm:"foreignKey:GroupID" json:"members"`
	CreatedAt time.Time     `json:"createdAt"`
}

// GroupMember is one row of persisted membership. Admin marks the members
// allowed to mutate the group through the management API.
type GroupMember struct {
	GroupID GroupID `gorm:"primaryKey" json:"groupId"`
	UserID  UserID  `gorm:"primaryKey" json:"userId"`
	Admin   bool    `json:"admin"`
}

func (g *Group) HasMember(id UserID) bool {
	for _, m := range g.Members {
		if m.UserID == id {
			return true
		}
	}
	return false
}

func (g *Group) MemberIDs() []UserID {
	ids := make([]UserID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// AdminCount reports how many members hold the admin role.
func (g *Group) AdminCount() int {
	n := 0
	for _, m := range g.Members {
		if m.Admin {
			n++
		}
	}
	return n
}

func (g *Group) IsAdmin(id UserID) bool {
	for _, m := range g.Members {
		if m.UserID == id {
			return m.Admin
		}
	}
	return false
}
