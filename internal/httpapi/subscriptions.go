package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"DirectoryServer/internal/domain"
	"DirectoryServer/internal/pubsub"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	maxClientMessage    = 512
)

type PersonSubscriber interface {
	Subscribe(ctx context.Context, topic string) (*pubsub.Subscription[domain.Person], error)
}

type subscriptionEvent struct {
	ID   string                    `json:"id"`
	Data map[string]personResponse `json:"data"`
}

func (a *api) handleSubscribePersonAdded(w http.ResponseWriter, r *http.Request) {
	setOperation(r.Context(), "personAdded")
	if err := a.authz.Authorize(r.Context(), "personAdded", CurrentSession(r.Context()), ""); err != nil {
		WriteDomainError(w, err)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		a.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := a.subscriber.Subscribe(ctx, domain.TopicPersonAdded)
	if err != nil {
		a.closeSocket(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer sub.Close()

	readWait := 2 * a.pingInterval
	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	// Clients never send data frames; reading only detects disconnects and
	// processes control frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				reason := "subscription ended"
				code := websocket.CloseNormalClosure
				switch err := sub.Err(); {
				case errors.Is(err, pubsub.ErrOverflow):
					code, reason = websocket.CloseTryAgainLater, "subscriber too slow"
				case errors.Is(err, pubsub.ErrClosed):
					code, reason = websocket.CloseGoingAway, "server shutting down"
				}
				a.closeSocket(conn, code, reason)
				return
			}
			ev := subscriptionEvent{
				ID:   msg.ID.String(),
				Data: map[string]personResponse{"personAdded": newPersonResponse(msg.Payload)},
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				a.logger.Debug("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (a *api) closeSocket(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
