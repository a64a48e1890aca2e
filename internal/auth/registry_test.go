package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/harentsoaR/dentist-portal/internal/session"
)

func TestRegistry_ReusesContextPerSession(t *testing.T) {
	built := 0
	r := NewRegistry(func(string) *Context {
		built++
		return New(&stubBackend{}, session.NewStore(session.NewMemoryKV()), zerolog.Nop())
	}, time.Hour)

	a1 := r.Get("a")
	a2 := r.Get("a")
	b := r.Get("b")

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, built)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var evicted []string
	r := NewRegistry(func(string) *Context {
		return New(&stubBackend{}, session.NewStore(session.NewMemoryKV()), zerolog.Nop())
	}, 10*time.Minute)
	r.now = func() time.Time { return now }
	r.OnEvict(func(id string) { evicted = append(evicted, id) })

	old := r.Get("old")
	now = now.Add(30 * time.Minute)
	r.Get("new")

	assert.Equal(t, []string{"old"}, evicted)
	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, old, r.Get("old"))
}
