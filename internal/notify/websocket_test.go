package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"resumematch-backend/internal/shared/server/middleware"
)

func newWSServer(t *testing.T, registry *Registry) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/updates", middleware.Auth(nil, "dev"), WSHandler(registry))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/updates"
	header := http.Header{"X-User-Id": []string{userID}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v (resp %+v)", err, resp)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return out
}

func TestWSHandlerDeliversEvents(t *testing.T) {
	registry := NewRegistry()
	srv := newWSServer(t, registry)
	conn := dialWS(t, srv, "7")

	welcome := readEvent(t, conn)
	if welcome["type"] != "connected" {
		t.Fatalf("expected welcome frame, got %v", welcome)
	}

	waitForCount(t, registry, 7, 1)
	NewNotifier(registry).ResumeStatus(context.Background(), 7, 11, "extracting", "Extracting text from document...", 25, nil)

	ev := readEvent(t, conn)
	if ev["type"] != "resume_update" || ev["progress"].(float64) != 25 {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestWSHandlerAnswersPing(t *testing.T) {
	registry := NewRegistry()
	srv := newWSServer(t, registry)
	conn := dialWS(t, srv, "7")
	_ = readEvent(t, conn) // welcome

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	pong := readEvent(t, conn)
	if pong["type"] != "pong" {
		t.Fatalf("expected pong, got %v", pong)
	}
}

func TestWSHandlerRejectsAnonymous(t *testing.T) {
	registry := NewRegistry()
	srv := newWSServer(t, registry)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/updates"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without identity")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestWSHandlerUnregistersOnClose(t *testing.T) {
	registry := NewRegistry()
	srv := newWSServer(t, registry)
	conn := dialWS(t, srv, "7")
	_ = readEvent(t, conn) // welcome
	waitForCount(t, registry, 7, 1)

	_ = conn.Close()
	waitForCount(t, registry, 7, 0)
}

func waitForCount(t *testing.T, registry *Registry, userID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Count(userID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("count for user %d never reached %d (got %d)", userID, want, registry.Count(userID))
}
