package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pet-admin-sync/internal/domain/appointments"
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/domain/pets"
	"pet-admin-sync/internal/domain/reports"
	"pet-admin-sync/internal/domain/users"
	"pet-admin-sync/internal/platform/httpclient"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/sync/channel"
	"pet-admin-sync/internal/sync/reconcile"
)

type SessionConfig struct {
	APIURL string
	WSURL  string

	Scope entity.Scope
	Token string

	BulkConcurrency int
	ReconcileEvery  time.Duration
	RequestTimeout  time.Duration

	Logger  logger.Logger
	Metrics *metrics.Recorder
}

// Session es la vida de un operador logueado: cuatro engines, un canal push y
// el reconciliador. Se construye explícitamente y se pasa a la capa de presentación.
type Session struct {
	Appointments *Engine[appointments.Appointment]
	Reports      *Engine[reports.Report]
	Pets         *Engine[pets.Pet]
	Users        *Engine[users.User]

	Channel    *channel.Channel
	Reconciler *reconcile.Reconciler

	scope          entity.Scope
	reconcileEvery time.Duration
	log            logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	subs   []*channel.Subscription
}

// Headers de identidad: Bearer si hay token, y los headers de modo dev siempre.
func identityHeaders(scope entity.Scope, token string) http.Header {
	h := http.Header{}
	if t := strings.TrimSpace(token); t != "" {
		h.Set("Authorization", "Bearer "+t)
	}
	if ref := strings.TrimSpace(scope.ActorRef); ref != "" {
		h.Set("X-Debug-User-ID", ref)
	}
	if scope.Role != "" {
		h.Set("X-Debug-Role", string(scope.Role))
	}
	return h
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Scope.Role == "" {
		return nil, fmt.Errorf("session: role required")
	}
	if cfg.Scope.Role != entity.RoleAdmin && strings.TrimSpace(cfg.Scope.ActorRef) == "" {
		return nil, fmt.Errorf("session: actor ref required for role %s", cfg.Scope.Role)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	client, err := httpclient.New(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	headers := identityHeaders(cfg.Scope, cfg.Token)
	client.Headers = headers

	s := &Session{
		scope:          cfg.Scope,
		reconcileEvery: cfg.ReconcileEvery,
		log:            log.With(map[string]any{"component": "session", "role": string(cfg.Scope.Role)}),
	}

	s.Appointments = New[appointments.Appointment](appointments.Domain{}, client, cfg.Scope, Options[appointments.Appointment]{
		Schema:  appointments.Schema(),
		Actions: names(appointments.Machine.Actions()),
		Describe: func(a appointments.Appointment) string {
			return fmt.Sprintf("%s %s  %s · %s", a.Date, a.Time, a.PetName, a.Service)
		},
		BulkConcurrency: cfg.BulkConcurrency, Logger: log, Metrics: cfg.Metrics,
	})
	s.Reports = New[reports.Report](reports.Domain{}, client, cfg.Scope, Options[reports.Report]{
		Schema:  reports.Schema(),
		Actions: names(reports.Machine.Actions()),
		Describe: func(r reports.Report) string {
			d := fmt.Sprintf("%s %s (%s) @ %s", r.Type, r.PetName, r.Species, r.Location)
			if r.MatchedEntityID != "" {
				d += " ↔ " + r.MatchedEntityID
			}
			return d
		},
		BulkConcurrency: cfg.BulkConcurrency, Logger: log, Metrics: cfg.Metrics,
	})
	s.Pets = New[pets.Pet](pets.Domain{}, client, cfg.Scope, Options[pets.Pet]{
		Schema:  pets.Schema(),
		Actions: names(pets.Machine.Actions()),
		Describe: func(p pets.Pet) string {
			return fmt.Sprintf("%s (%s, %s) %s $%.2f", p.Name, p.Species, p.Breed, p.Listing, p.Fee)
		},
		BulkConcurrency: cfg.BulkConcurrency, Logger: log, Metrics: cfg.Metrics,
	})
	s.Users = New[users.User](users.Domain{}, client, cfg.Scope, Options[users.User]{
		Schema:  users.Schema(),
		Actions: names(users.Machine.Actions()),
		Describe: func(u users.User) string {
			return fmt.Sprintf("%s <%s> %s", u.Name, u.Email, u.Role)
		},
		BulkConcurrency: cfg.BulkConcurrency, Logger: log, Metrics: cfg.Metrics,
	})

	s.Reconciler = reconcile.New(log, cfg.Metrics, s.Appointments, s.Reports, s.Pets, s.Users)

	if ws := strings.TrimSpace(cfg.WSURL); ws != "" {
		s.Channel = channel.New(channel.Config{
			URL:    ws,
			Header: headers.Clone(),
			Logger: log,
			OnConnect: func(ctx context.Context) {
				_ = s.Reconciler.Reconcile(ctx)
			},
		})
	}
	return s, nil
}

func names[A ~string](as []A) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, string(a))
	}
	return out
}

func (s *Session) Scope() entity.Scope { return s.scope }

// Handles devuelve los engines en el orden de entity.Kinds().
func (s *Session) Handles() []Handle {
	return []Handle{s.Appointments, s.Reports, s.Pets, s.Users}
}

func (s *Session) Handle(kind entity.Kind) (Handle, bool) {
	for _, h := range s.Handles() {
		if h.Kind() == kind {
			return h, true
		}
	}
	return nil, false
}

// Bootstrap hace el fetch inicial de los cuatro dominios en paralelo.
func (s *Session) Bootstrap(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range s.Handles() {
		h := h
		g.Go(func() error {
			if err := h.Refresh(gctx); err != nil {
				return fmt.Errorf("bootstrap %s: %w", h.Kind(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Start suscribe los engines al canal y arranca el loop push y la reconciliación periódica.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.Channel != nil {
		for _, h := range s.Handles() {
			s.subs = append(s.subs, h.attach(s.Channel))
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.Channel.Run(ctx)
		}()
	}
	if s.reconcileEvery > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.Reconciler.Run(ctx, s.reconcileEvery)
		}()
	}
	s.log.Info("session started", map[string]any{"push": s.Channel != nil, "reconcile_every": s.reconcileEvery.String()})
}

// Close detiene los loops y libera las suscripciones. Idempotente.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	subs := s.subs
	s.cancel = nil
	s.subs = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	for _, sub := range subs {
		sub.Close()
	}
}
