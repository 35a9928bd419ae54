package ws

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkozlov/converse/internal/core"
	"github.com/dkozlov/converse/internal/domain"
)

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleEvent decodes one inbound envelope and routes it. Every failure is
// folded into a scoped error event on this connection only; a fault in one
// handler must never take down the connection or touch anyone else's.
func (g *Gateway) handleEvent(sess *core.Session, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "ws.handlers").Str("conn", string(sess.ID)).Msg("handler panic recovered")
			g.sendError(sess, fmt.Errorf("internal error"))
		}
	}()

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(sess, fmt.Errorf("%w: bad payload", domain.ErrValidation))
		return
	}

	switch env.Type {
	case "send-message":
		var p struct {
			ReceiverID  domain.UserID `json:"receiverId"`
			Content     string        `json:"content"`
			MessageType string        `json:"messageType"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			g.sendError(sess, fmt.Errorf("%w: bad payload", domain.ErrValidation))
			return
		}
		if err := g.Dispatch.Direct(sess, p.ReceiverID, p.Content, p.MessageType); err != nil {
			g.sendError(sess, err)
		}

	case "send-group-message":
		var p struct {
			GroupID     domain.GroupID `json:"groupId"`
			Content     string         `json:"content"`
			MessageType string         `json:"messageType"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			g.sendError(sess, fmt.Errorf("%w: bad payload", domain.ErrValidation))
			return
		}
		if err := g.Dispatch.Group(sess, p.GroupID, p.Content, p.MessageType); err != nil {
			g.sendError(sess, err)
		}

	case "typing":
		var p struct {
			ReceiverID domain.UserID `json:"receiverId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		g.Ephemeral.Typing(sess, p.ReceiverID)

	case "stop-typing":
		var p struct {
			ReceiverID domain.UserID `json:"receiverId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		g.Ephemeral.StopTyping(sess, p.ReceiverID)

	case "group-typing":
		var p struct {
			GroupID domain.GroupID `json:"groupId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		g.Ephemeral.GroupTyping(sess, p.GroupID)

	case "group-stop-typing":
		var p struct {
			GroupID domain.GroupID `json:"groupId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		g.Ephemeral.GroupStopTyping(sess, p.GroupID)

	case "get-user-status":
		var p struct {
			UserID domain.UserID `json:"userId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		g.Ephemeral.Status(sess, p.UserID)

	case "mark-read":
		var p struct {
			SenderID domain.UserID `json:"senderId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			g.sendError(sess, fmt.Errorf("%w: bad payload", domain.ErrValidation))
			return
		}
		if err := g.Receipts.MarkRead(sess, p.SenderID); err != nil {
			g.sendError(sess, err)
		}

	case "create-group":
		var p struct {
			Name    string          `json:"name"`
			Members []domain.UserID `json:"members"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			g.sendError(sess, fmt.Errorf("%w: bad payload", domain.ErrValidation))
			return
		}
		if _, err := g.GroupSvc.Create(sess, p.Name, p.Members); err != nil {
			g.sendError(sess, err)
		}

	case "leave-group":
		var p struct {
			GroupID domain.GroupID `json:"groupId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			g.sendError(sess, fmt.Errorf("%w: bad payload", domain.ErrValidation))
			return
		}
		if err := g.GroupSvc.Leave(sess, p.GroupID); err != nil {
			g.sendError(sess, err)
		}

	default:
		log.Warn().Str("module", "ws.handlers").Str("type", env.Type).Msg("unknown event")
	}
}

func (g *Gateway) sendError(sess *core.Session, err error) {
	log.Warn().Err(err).Str("module", "ws.handlers").Str("conn", string(sess.ID)).Msg("handler error")
	if sendErr := sess.Send(errorEvent{Type: "error", Message: err.Error()}); sendErr != nil {
		log.Debug().Err(sendErr).Str("module", "ws.handlers").Str("conn", string(sess.ID)).Msg("dropped error frame")
	}
}
