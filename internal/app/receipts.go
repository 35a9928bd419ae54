package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
	"github.com/dkozlov/converse/internal/store"
)

// Receipts bulk-updates read status and notifies the counterpart.
type Receipts struct {
	Presence *Presence
	Messages store.MessageStore
}

// MarkRead flips every unread counterpart→reader message to read. The
// counterpart, when reachable, is notified regardless of how many rows
// changed — the receipt states the reader's position, not a delta.
func (r *Receipts) MarkRead(reader *core.Session, counterpartID domain.UserID) error {
	updated, err := r.Messages.MarkConversationRead(counterpartID, reader.User.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	log.Info().Str("module", "app.receipts").Str("reader", string(reader.User.ID)).Str("counterpart", string(counterpartID)).Int64("updated", updated).Msg("marked conversation read")

	if cs, ok := r.Presence.Get(counterpartID); ok {
		if err := cs.Send(messagesRead(reader.User.ID)); err != nil {
			log.Debug().Err(err).Str("module", "app.receipts").Str("counterpart", string(counterpartID)).Msg("dropped messages-read frame")
		}
	}
	return nil
}
