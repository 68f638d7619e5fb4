package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/middleware"
	"pet-admin-sync/internal/platform/metrics"
)

func dial(t *testing.T, url, user, role string) *websocket.Conn {
	t.Helper()
	h := http.Header{}
	h.Set("X-Debug-User-ID", user)
	h.Set("X-Debug-Role", role)
	conn, _, err := websocket.DefaultDialer.Dial(url, h)
	if err != nil {
		t.Fatalf("dial %s: %v", user, err)
	}
	return conn
}

func TestHub_ScopedBroadcast(t *testing.T) {
	m := metrics.New(nil)
	hub := NewHub(nil, m)
	ts := httptest.NewServer(middleware.AuthContext(nil)(http.HandlerFunc(hub.ServeWS)))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	admin := dial(t, url, "admin-1", "admin")
	defer admin.Close()
	owner := dial(t, url, "owner-1", "owner")
	defer owner.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clients never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(entity.Event{Kind: entity.KindPets, Type: entity.EventCreated, EntityID: "p9", ActorRef: "owner-2"})
	hub.Publish(entity.Event{Kind: entity.KindPets, Type: entity.EventCreated, EntityID: "p1", ActorRef: "owner-1"})

	read := func(c *websocket.Conn) entity.Event {
		t.Helper()
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev entity.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	}

	// Admin recibe ambos en orden; el owner solo el suyo.
	if ev := read(admin); ev.EntityID != "p9" {
		t.Fatalf("admin first event: %+v", ev)
	}
	if ev := read(admin); ev.EntityID != "p1" {
		t.Fatalf("admin second event: %+v", ev)
	}
	if ev := read(owner); ev.EntityID != "p1" {
		t.Fatalf("owner must only receive its own events, got %+v", ev)
	}

	if got := testutil.ToFloat64(m.Broadcasts.WithLabelValues("pets", "created")); got != 2 {
		t.Fatalf("expected 2 broadcasts, got %v", got)
	}
}

func TestHub_RequiresIdentity(t *testing.T) {
	hub := NewHub(nil, nil)
	ts := httptest.NewServer(middleware.AuthContext(nil)(http.HandlerFunc(hub.ServeWS)))
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err == nil {
		t.Fatalf("expected dial to fail without identity")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}
