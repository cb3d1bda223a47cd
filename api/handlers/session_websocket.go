package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool, served to localhost
	},
}

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// SessionMessage is one websocket frame
type SessionMessage struct {
	Type     string                  `json:"type"`
	Snapshot *domain.SessionSnapshot `json:"snapshot,omitempty"`
}

// SessionWebSocketHandler streams session snapshots to browsers
type SessionWebSocketHandler struct {
	session   SessionService
	maxPerSec float64
	logger    *zap.Logger
}

// NewSessionWebSocketHandler creates a handler sending at most maxPerSec snapshots per client
func NewSessionWebSocketHandler(session SessionService, maxPerSec float64, logger *zap.Logger) *SessionWebSocketHandler {
	if maxPerSec <= 0 {
		maxPerSec = 4
	}
	return &SessionWebSocketHandler{
		session:   session,
		maxPerSec: maxPerSec,
		logger:    logger,
	}
}

// HandleWebSocket handles GET /api/v1/session/ws
func (h *SessionWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	updates, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Read messages from client so close frames and pongs are processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// the subscription keeps only the latest snapshot, so waiting coalesces bursts
	limiter := rate.NewLimiter(rate.Limit(h.maxPerSec), 1)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap := <-updates:
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(SessionMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
				h.logger.Debug("Failed to send snapshot", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			h.logger.Debug("WebSocket client disconnected", zap.String("remote_addr", c.Request.RemoteAddr))
			return
		}
	}
}
