package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"resumematch-backend/internal/shared/server/middleware"
	"resumematch-backend/internal/shared/telemetry"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 90 * time.Second
	readLimit    = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens before the upgrade; origin policy is handled by the CORS
	// layer for the REST surface and is not enforced here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsChannel adapts a websocket connection to the Channel interface. Writes are
// serialized through a mutex because gorilla connections allow one concurrent
// writer.
type wsChannel struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsChannel) Send(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

// WSHandler upgrades authenticated requests and keeps the connection
// registered until the peer goes away.
func WSHandler(registry *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			telemetry.Warn("ws.upgrade_failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			return
		}

		ch := &wsChannel{conn: conn}
		registry.Connect(userID, ch)
		defer func() {
			registry.Disconnect(userID, ch)
			_ = ch.Close()
		}()

		welcome, _ := json.Marshal(gin.H{
			"type":    "connected",
			"message": "Live updates enabled",
		})
		if err := ch.Send(c.Request.Context(), welcome); err != nil {
			return
		}

		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					telemetry.Warn("ws.read_failed", map[string]any{
						"user_id": userID,
						"error":   err.Error(),
					})
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

			var msg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Type == "ping" {
				pong, _ := json.Marshal(gin.H{"type": "pong"})
				if err := ch.Send(c.Request.Context(), pong); err != nil {
					return
				}
			}
		}
	}
}
