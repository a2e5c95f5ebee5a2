package realtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/testboard/engine/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Initial loads the starting snapshots sent right after a client connects.
type Initial func(ctx context.Context) ([]Snapshot, error)

// Handler upgrades to a websocket and streams snapshots as CloudEvents
// until the client disconnects.
func Handler(h *Hub, initial Initial, allowOrigin func(r *http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     allowOrigin,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.L().Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		sub := h.Subscribe()
		defer sub.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if initial != nil {
			snaps, err := initial(ctx)
			if err != nil {
				logger.L().Warn("initial snapshot failed", zap.Error(err))
				return
			}
			for _, s := range snaps {
				sub.Seed(s)
			}
		}

		// Reader: only pongs and close frames are expected.
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			snaps, err := sub.Next(ctx)
			if errors.Is(err, ErrClosed) {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			if err != nil {
				return
			}
			for _, s := range snaps {
				ev, err := ToEvent(s)
				if err != nil {
					logger.L().Error("encode snapshot event", zap.Error(err))
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					logger.L().Debug("websocket write failed", zap.Error(err))
					return
				}
			}
		}
	}
}
