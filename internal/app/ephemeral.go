package app

import (
	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
)

// Ephemeral routes non-persistent signals. Nothing here touches a store and
// nothing errors: a signal aimed at an absent target is silently dropped.
type Ephemeral struct {
	Presence *Presence
	Rooms    *Rooms
}

func (e *Ephemeral) Typing(sender *core.Session, receiverID domain.UserID) {
	if rs, ok := e.Presence.Get(receiverID); ok {
		_ = rs.Send(userTyping(sender.User))
	}
}

func (e *Ephemeral) StopTyping(sender *core.Session, receiverID domain.UserID) {
	if rs, ok := e.Presence.Get(receiverID); ok {
		_ = rs.Send(userStopTyping(sender.User))
	}
}

func (e *Ephemeral) GroupTyping(sender *core.Session, groupID domain.GroupID) {
	e.Rooms.Broadcast(groupID, sender.ID, groupUserTyping(groupID, sender.User))
}

func (e *Ephemeral) GroupStopTyping(sender *core.Session, groupID domain.GroupID) {
	e.Rooms.Broadcast(groupID, sender.ID, groupUserStopTyping(groupID, sender.User))
}

// Status answers a reachability query with a synchronous reply to the asker.
func (e *Ephemeral) Status(sender *core.Session, userID domain.UserID) {
	_ = sender.Send(userStatus(userID, e.Presence.IsOnline(userID)))
}
