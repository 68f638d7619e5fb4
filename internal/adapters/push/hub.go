// Package push es el hub websocket del backend: difunde cada evento a los
// suscriptores cuyo scope cubre el actorRef del evento.
package push

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/middleware"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingEvery    = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		return strings.Contains(origin, "://"+strings.TrimSpace(r.Host))
	},
}

type client struct {
	scope entity.Scope
	send  chan []byte
	once  sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	log     logger.Logger
	metrics *metrics.Recorder
}

func NewHub(log logger.Logger, m *metrics.Recorder) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.With(map[string]any{"component": "push"}),
		metrics: m,
	}
}

// Publish implementa backend.Publisher. Nunca bloquea: un cliente lento se desconecta
// y se recupera con la reconciliación al reconectar.
func (h *Hub) Publish(ev entity.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", map[string]any{"error": err.Error()})
		return
	}
	h.metrics.Broadcast(string(ev.Kind), string(ev.Type))

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if !c.scope.Covers(ev.ActorRef) {
			continue
		}
		select {
		case c.send <- raw:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow push client", map[string]any{"actor_ref": c.scope.ActorRef})
		h.remove(c)
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// ServeWS godoc
// @Summary Canal push de eventos
// @Description Upgrade a websocket. Cada mensaje es un evento `{id, kind, type, entityId, actorRef, revision, at, delta}`. Solo llegan eventos cuyo actorRef cubre el scope del actor. No hay replay: al reconectar el cliente debe refetchear.
// @Tags events
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: admin | professional | owner"
// @Success 101 "switching protocols"
// @Failure 401 {string} string "unauthorized"
// @Router /events/ws [get]
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondió.
		return
	}

	c := &client{scope: scope, send: make(chan []byte, sendBuffer)}
	h.add(c)
	h.log.Debug("push client connected", map[string]any{"actor_ref": scope.ActorRef, "role": string(scope.Role)})

	done := make(chan struct{})
	go h.writePump(conn, c, done)

	// El cliente no manda nada; leemos solo para detectar el cierre.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	<-done
	_ = conn.Close()
}

func (h *Hub) writePump(conn *websocket.Conn, c *client, done chan<- struct{}) {
	defer close(done)
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = conn.Close()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = conn.Close()
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
