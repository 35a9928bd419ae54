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

// Dispatch validates and persists message intents, then fans them out.
// Persistence always precedes fan-out; a failed write aborts the operation
// with no fan-out of any kind.
type Dispatch struct {
	Presence *Presence
	Rooms    *Rooms
	Messages store.MessageStore
	Groups   store.GroupStore
}

// Direct persists a one-to-one message and delivers it. The receiver gets a
// receive-message event only when reachable; the sender always gets the
// sent-message echo so its client can update without waiting on receiver
// reachability. Durability never depends on receiver presence.
func (d *Dispatch) Direct(sender *core.Session, receiverID domain.UserID, content, msgType string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty message content", domain.ErrValidation)
	}
	if receiverID == "" {
		return fmt.Errorf("%w: missing receiver", domain.ErrValidation)
	}

	msg := &domain.Message{
		SenderID:   sender.User.ID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
	}
	if err := d.Messages.Create(msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if rs, ok := d.Presence.Get(receiverID); ok {
		if err := rs.Send(receiveMessage(msg)); err != nil {
			log.Debug().Err(err).Str("module", "app.dispatch").Str("receiver", string(receiverID)).Msg("dropped receive-message frame")
		}
	}
	if err := sender.Send(sentMessage(msg)); err != nil {
		log.Debug().Err(err).Str("module", "app.dispatch").Str("sender", string(sender.User.ID)).Msg("dropped sent-message echo")
	}
	log.Info().Str("module", "app.dispatch").Str("msg", msg.ID).Str("sender", string(msg.SenderID)).Str("receiver", string(receiverID)).Msg("direct message dispatched")
	return nil
}

// Group persists a group message and broadcasts it to the room, excluding
// the originating connection. Membership is checked against the persisted
// group, never the room table, which can lag behind out-of-band edits.
// Offline members catch up through history; they are not special-cased.
func (d *Dispatch) Group(sender *core.Session, groupID domain.GroupID, content, msgType string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty message content", domain.ErrValidation)
	}

	group, err := d.Groups.FindByID(groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown group", domain.ErrValidation)
		}
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !group.HasMember(sender.User.ID) {
		return fmt.Errorf("%w: not a member of this group", domain.ErrAuthorization)
	}

	msg := &domain.Message{
		SenderID: sender.User.ID,
		GroupID:  groupID,
		Content:  content,
		Type:     msgType,
	}
	if err := d.Messages.Create(msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	sent := d.Rooms.Broadcast(groupID, sender.ID, receiveGroupMessage(msg))
	log.Info().Str("module", "app.dispatch").Str("msg", msg.ID).Str("group", string(groupID)).Int("sent_to", sent).Msg("group message dispatched")
	return nil
}
