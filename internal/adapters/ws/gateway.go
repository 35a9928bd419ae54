// Package ws is the live-connection adapter: it authenticates inbound
// websocket connections, binds them to verified identities, and feeds
// decoded events into the services.
package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/app"
	"github.com/dkozlov/converse/internal/config"
	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
	"github.com/dkozlov/converse/internal/store"
)

// TokenVerifier validates the handshake credential.
type TokenVerifier interface {
	Verify(token string) (domain.UserID, error)
}

type Gateway struct {
	Verifier  TokenVerifier
	Users     store.UserStore
	Lifecycle *app.Lifecycle
	Dispatch  *app.Dispatch
	Ephemeral *app.Ephemeral
	Receipts  *app.Receipts
	GroupSvc  *app.GroupService
	Cfg       *config.Config
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type connectionSuccessEvent struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

// Handle performs the handshake. Authentication happens before the upgrade:
// a refused connection never touches the registries.
func (g *Gateway) Handle(ctx context.Context, c *gin.Context) {
	userID, err := g.Verifier.Verify(bearerToken(c))
	if err != nil {
		log.Warn().Err(err).Str("module", "ws.gateway").Msg("handshake rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrAuthentication.Error()})
		return
	}
	user, err := g.Users.FindByID(userID)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws.gateway").Str("user", string(userID)).Msg("handshake identity not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrAuthentication.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws.gateway").Msg("ws upgrade failed")
		return
	}
	conn.SetReadLimit(g.Cfg.ReadLimit)

	wc := newWSConn(conn, g.Cfg.SendBuffer)
	sess := core.NewSession(core.ConnID(uuid.NewString()), user, wc)
	ctx, cancel := context.WithCancel(ctx)

	log.Info().Str("module", "ws.gateway").Str("user", string(user.ID)).Str("conn", string(sess.ID)).Msg("connection authenticated")

	g.Lifecycle.Connect(sess)
	_ = sess.Send(connectionSuccessEvent{
		Type:     "connection-success",
		Message:  "connected",
		UserID:   user.ID,
		Username: user.Username,
	})

	go wc.writePump(ctx, g.Cfg.PingPeriod)
	go g.readPump(ctx, cancel, sess, wc)
}

func (g *Gateway) readPump(ctx context.Context, cancel context.CancelFunc, sess *core.Session, c *wsConn) {
	defer func() {
		cancel()
		c.Close()
		g.Lifecycle.Disconnect(sess)
		log.Info().Str("module", "ws.gateway").Str("conn", string(sess.ID)).Msg("connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("module", "ws.gateway").Str("conn", string(sess.ID)).Msg("read error")
				}
				return
			}
			g.handleEvent(sess, data)
		}
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}
