package auth

import (
	"context"
	"sync"
	"time"

	"github.com/harentsoaR/dentist-portal/internal/metrics"
)

type ctxKey struct{}

// WithContext attaches a session to a request context so that lower layers
// (the API client's 401 hook) can reach it.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Context)
	return c, ok && c != nil
}

// Factory builds the Context of a new browser session.
type Factory func(sessionID string) *Context

const sweepInterval = time.Minute

// Registry keeps one Context per browser session id so that each browser
// hydrates once per portal process.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	now     func() time.Time
	onEvict func(sessionID string)

	mu        sync.Mutex
	entries   map[string]*registryEntry
	lastSweep time.Time
}

type registryEntry struct {
	ctx      *Context
	lastSeen time.Time
}

func NewRegistry(factory Factory, idleTTL time.Duration) *Registry {
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// OnEvict registers a callback run (outside the lock) for each evicted session id.
func (r *Registry) OnEvict(fn func(sessionID string)) { r.onEvict = fn }

func (r *Registry) Get(sessionID string) *Context {
	now := r.now()

	r.mu.Lock()
	evicted := r.sweepLocked(now)
	e, ok := r.entries[sessionID]
	if !ok {
		e = &registryEntry{ctx: r.factory(sessionID)}
		r.entries[sessionID] = e
	}
	e.lastSeen = now
	metrics.ActiveSessions.Set(float64(len(r.entries)))
	r.mu.Unlock()

	if r.onEvict != nil {
		for _, id := range evicted {
			r.onEvict(id)
		}
	}
	return e.ctx
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sweepLocked(now time.Time) []string {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < sweepInterval {
		return nil
	}
	r.lastSweep = now
	var evicted []string
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
