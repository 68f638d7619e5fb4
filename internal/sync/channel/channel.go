// Package channel es el cliente del canal push (websocket) con suscripciones por dominio.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/logger"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second

	maxMessage = 1 << 20
)

// Handler recibe los eventos de un dominio en orden de llegada.
type Handler func(ev entity.Event)

type Config struct {
	URL    string
	Header http.Header

	// Dialer opcional (tests). Por defecto websocket.DefaultDialer.
	Dialer *websocket.Dialer

	MinBackoff time.Duration
	MaxBackoff time.Duration

	Logger logger.Logger

	// OnConnect corre tras cada conexión exitosa, incluida la primera: lo publicado
	// entre el fetch inicial (o la caída) y el dial no se reenvía. Ahí va la reconciliación.
	OnConnect func(ctx context.Context)
}

// Channel multiplexa una conexión entre las suscripciones de cada dominio.
type Channel struct {
	cfg    Config
	dialer *websocket.Dialer
	log    logger.Logger

	mu     sync.RWMutex
	subs   map[entity.Kind]map[uint64]*Subscription
	nextID uint64

	connected atomic.Bool
	// hooks: OnConnect en curso. Run no retorna hasta que terminen.
	hooks sync.WaitGroup
}

func New(cfg Config) *Channel {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = defaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	d := cfg.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Channel{
		cfg:    cfg,
		dialer: d,
		log:    log.With(map[string]any{"component": "channel"}),
		subs:   make(map[entity.Kind]map[uint64]*Subscription),
	}
}

// Subscription es un registro de handler. Close es idempotente y, una vez que
// retorna, el handler no vuelve a ser invocado.
type Subscription struct {
	ch   *Channel
	kind entity.Kind
	id   uint64

	mu     sync.Mutex
	closed bool
	h      Handler
}

// Subscribe registra h para los eventos de kind.
func (c *Channel) Subscribe(kind entity.Kind, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	s := &Subscription{ch: c, kind: kind, id: c.nextID, h: h}
	if c.subs[kind] == nil {
		c.subs[kind] = make(map[uint64]*Subscription)
	}
	c.subs[kind][s.id] = s
	return s
}

// Close da de baja la suscripción. No llamar desde dentro del propio handler.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.ch.mu.Lock()
	if m := s.ch.subs[s.kind]; m != nil {
		delete(m, s.id)
		if len(m) == 0 {
			delete(s.ch.subs, s.kind)
		}
	}
	s.ch.mu.Unlock()
}

func (s *Subscription) deliver(ev entity.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.h(ev)
}

// With suscribe h mientras corre fn y garantiza la baja en cualquier salida.
func With(c *Channel, kind entity.Kind, h Handler, fn func() error) error {
	sub := c.Subscribe(kind, h)
	defer sub.Close()
	return fn()
}

// Subscribers cuenta suscripciones activas de kind.
func (c *Channel) Subscribers(kind entity.Kind) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs[kind])
}

func (c *Channel) Connected() bool { return c.connected.Load() }

// Dispatch decodifica un mensaje crudo y lo entrega a los suscriptores del dominio.
// Mensajes malformados o de dominios desconocidos se descartan.
func (c *Channel) Dispatch(raw []byte) {
	var ev entity.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.log.Warn("dropping malformed push message", map[string]any{"error": err.Error()})
		return
	}
	kind, ok := entity.ParseKind(string(ev.Kind))
	if !ok {
		c.log.Debug("dropping event for unknown kind", map[string]any{"kind": string(ev.Kind)})
		return
	}
	ev.Kind = kind

	c.mu.RLock()
	targets := make([]*Subscription, 0, len(c.subs[kind]))
	for _, s := range c.subs[kind] {
		targets = append(targets, s)
	}
	c.mu.RUnlock()

	for _, s := range targets {
		s.deliver(ev)
	}
}

// Run mantiene la conexión hasta que ctx se cancela, reconectando con backoff exponencial.
func (c *Channel) Run(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return errors.New("channel: url required")
	}

	defer c.hooks.Wait()

	backoff := c.cfg.MinBackoff
	first := true
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("push dial failed", map[string]any{"error": err.Error(), "retry_in": backoff.String()})
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, c.cfg.MaxBackoff)
			continue
		}

		backoff = c.cfg.MinBackoff
		c.connected.Store(true)
		if first {
			c.log.Info("push channel connected", map[string]any{"url": c.cfg.URL})
		} else {
			c.log.Info("push channel reconnected", nil)
		}
		first = false
		if c.cfg.OnConnect != nil {
			c.hooks.Add(1)
			go func() {
				defer c.hooks.Done()
				c.cfg.OnConnect(ctx)
			}()
		}

		err = c.readLoop(ctx, conn)
		c.connected.Store(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("push channel lost", map[string]any{"error": err.Error()})
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	conn.SetReadLimit(maxMessage)
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.Dispatch(raw)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
