package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"car-fleet/internal/common/ws"
	"car-fleet/internal/fleet/domain"

	"github.com/gorilla/websocket"
)

const (
	defaultPingPeriod = 30 * time.Second
	defaultPongWait   = 60 * time.Second
)

// FeedHandler upgrades subscribers onto the live position feed. Every
// ingested position is pushed to all connected subscribers.
type FeedHandler struct {
	logger     *slog.Logger
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	pongWait   time.Duration
}

func NewFeedHandler(logger *slog.Logger, hub *ws.Hub) *FeedHandler {
	return &FeedHandler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
	}
}

func (h *FeedHandler) HandlePositionsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws_upgrade_fail", "error", err)
		return
	}
	defer conn.Close()

	subID := newSubscriberID()
	h.logger.Info("ws_feed_connected", "subscriber_id", subID)

	h.hub.Add(subID, conn)
	defer h.hub.Remove(subID)

	// every received pong extends the read deadline
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))

	// Pings run on their own goroutine. Subscribers are read-only, so
	// the read loop below can block indefinitely and must not gate the
	// keep-alive. Control writes are safe alongside hub broadcasts.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(h.pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
					h.logger.Warn("ws_ping_fail", "subscriber_id", subID, "error", err)
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Info("ws_feed_disconnected", "subscriber_id", subID)
			return
		}
	}
}

// Feed implements the position-feed port over the shared hub.
type Feed struct {
	hub *ws.Hub
}

func NewFeed(hub *ws.Hub) *Feed {
	return &Feed{hub: hub}
}

func (f *Feed) Broadcast(ctx context.Context, plate string, pos domain.Position) error {
	msg := map[string]any{
		"type":      "position",
		"plate":     plate,
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
		"address":   pos.Address,
		"date":      pos.Date,
	}
	f.hub.Broadcast(msg)
	return nil
}

func newSubscriberID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("sub_%d", time.Now().UnixNano())
	}
	return "sub_" + hex.EncodeToString(b)
}
