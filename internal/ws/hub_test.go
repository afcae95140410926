package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.SetJWTSecret("ws-test-secret")

	r := gin.New()
	r.GET("/ws", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, userID int64, admin bool) *websocket.Conn {
	t.Helper()
	token, err := service.GenerateJWT(userID, admin, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if env := read(t, conn); env.Type != MsgReady {
		t.Fatalf("first message = %q, want ready", env.Type)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return env
}

func waitOnline(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Online() != n {
		if time.Now().After(deadline) {
			t.Fatalf("online = %d, want %d", hub.Online(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatusEventReachesOwnerAndAdmins(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub)

	owner := dial(t, url, 7, false)
	admin := dial(t, url, 1, true)
	waitOnline(t, hub, 2)

	hub.Notify(context.Background(), domain.StatusEvent{
		UserID:     7,
		RecordType: domain.RecordPayment,
		RecordID:   42,
		Status:     "completed",
	})

	for name, conn := range map[string]*websocket.Conn{"owner": owner, "admin": admin} {
		env := read(t, conn)
		if env.Type != MsgRecordStatus {
			t.Fatalf("%s got %q", name, env.Type)
		}
		var ev domain.StatusEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.RecordID != 42 || ev.Status != "completed" || ev.RecordType != domain.RecordPayment {
			t.Fatalf("%s got %+v", name, ev)
		}
	}
}

func TestPingPong(t *testing.T) {
	hub := NewHub()
	conn := dial(t, startServer(t, hub), 3, false)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if env := read(t, conn); env.Type != MsgPong {
		t.Fatalf("got %q, want pong", env.Type)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bet"}`)); err != nil {
		t.Fatal(err)
	}
	if env := read(t, conn); env.Type != MsgError {
		t.Fatalf("got %q, want error", env.Type)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	conn := dial(t, startServer(t, hub), 9, false)
	waitOnline(t, hub, 1)

	conn.Close()
	waitOnline(t, hub, 0)

	// no connections left, nothing to deliver to
	hub.Notify(context.Background(), domain.StatusEvent{UserID: 9, Status: "approved"})
}

func TestRejectsMissingToken(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("resp = %+v", resp)
	}
}
