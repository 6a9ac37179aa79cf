package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"visualizer/internal/infra"
)

// Factory builds a fresh controller for a new session.
type Factory func() *Controller

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry maps browser sessions to their controllers and evicts idle ones.
type Registry struct {
	newController Factory
	idle          time.Duration
	logger        *infra.Logger
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates an empty registry. A non-positive idle duration
// disables eviction.
func NewRegistry(factory Factory, idle time.Duration, logger *infra.Logger) *Registry {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Registry{
		newController: factory,
		idle:          idle,
		logger:        logger,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Get returns the controller for id and marks the session as active.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.ctrl, true
}

// Create registers a new session and returns its id.
func (r *Registry) Create() (string, *Controller) {
	id := uuid.NewString()
	ctrl := r.newController()

	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, lastSeen: r.now()}
	total := len(r.sessions)
	r.mu.Unlock()

	r.logger.Debug().Str("session", id).Int("active", total).Msg("editor: session created")
	return id, ctrl
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the idle timeout and closes
// their controllers so preview handles are released. It returns the number
// of evicted sessions.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var expired []*Controller
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s.ctrl)
			delete(r.sessions, id)
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	if len(expired) > 0 {
		r.logger.Info().Int("evicted", len(expired)).Int("active", remaining).Msg("editor: swept idle sessions")
	}
	return len(expired)
}

// Run sweeps every interval on a cron scheduler until ctx is done. Intervals
// below one second are rounded up by the scheduler.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idle <= 0 {
		return
	}
	c := cron.New()
	c.Schedule(cron.Every(interval), cron.FuncJob(func() { r.Sweep() }))
	c.Start()
	r.logger.Debug().Dur("interval", interval).Msg("editor: session sweeper started")

	<-ctx.Done()
	<-c.Stop().Done()
}

// Close closes and forgets every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.ctrl.Close()
	}
}
