package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/store"
)

// Lifecycle orchestrates what happens when an authenticated connection
// appears and when it goes away. Registry mutations happen synchronously,
// before any store call issued from the same invocation; the durable
// online/offline flags are eventually consistent with the registries.
type Lifecycle struct {
	Presence *Presence
	Rooms    *Rooms
	Groups   store.GroupStore
	Users    store.UserStore
}

// Connect registers the session. A prior session for the same user is
// evicted and closed; the new connection wins.
func (l *Lifecycle) Connect(s *core.Session) {
	if old := l.Presence.Bind(s); old != nil {
		log.Info().Str("module", "app.lifecycle").Str("user", string(s.User.ID)).Str("evicted", string(old.ID)).Msg("evicting prior session")
		old.Close()
	}

	groups, err := l.Groups.FindByUser(s.User.ID)
	if err != nil {
		// Presence stands even when membership cannot be loaded; the
		// user just misses group fan-out until reconnect.
		log.Warn().Err(err).Str("module", "app.lifecycle").Str("user", string(s.User.ID)).Msg("failed to load group memberships")
	}
	for _, g := range groups {
		l.Rooms.Join(s, g.ID)
	}

	go func() {
		if err := l.Users.SetOnlineStatus(s.User.ID, true, nil); err != nil {
			log.Error().Err(err).Str("module", "app.lifecycle").Str("user", string(s.User.ID)).Msg("failed to persist online flag")
		}
	}()

	l.broadcastOnline()
}

// Disconnect is unconditional cleanup: it runs for every transport close,
// and a failed durable write is logged, never surfaced.
func (l *Lifecycle) Disconnect(s *core.Session) {
	l.Rooms.LeaveAll(s.ID)

	owner := l.Presence.Unbind(s.User.ID, s.ID)
	if owner {
		// Only the owning connection records last-seen; an evicted
		// session's teardown must not mark its successor offline.
		now := time.Now()
		go func() {
			if err := l.Users.SetOnlineStatus(s.User.ID, false, &now); err != nil {
				log.Error().Err(err).Str("module", "app.lifecycle").Str("user", string(s.User.ID)).Msg("failed to persist offline flag")
			}
		}()
	}

	l.broadcastOnline()
}

func (l *Lifecycle) broadcastOnline() {
	evt := onlineUsers(l.Presence.OnlineIDs())
	for _, s := range l.Presence.Sessions() {
		if err := s.Send(evt); err != nil {
			log.Debug().Err(err).Str("module", "app.lifecycle").Str("conn", string(s.ID)).Msg("dropped online-users frame")
		}
	}
}
