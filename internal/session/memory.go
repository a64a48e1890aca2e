package session

import (
	"context"
	"sync"
)

type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// MemoryProvider keeps every browser's values in process memory; they are lost on restart.
type MemoryProvider struct {
	mu     sync.Mutex
	scopes map[string]*MemoryKV
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{scopes: make(map[string]*MemoryKV)}
}

func (p *MemoryProvider) Scope(id string) KV {
	p.mu.Lock()
	defer p.mu.Unlock()
	kv, ok := p.scopes[id]
	if !ok {
		kv = NewMemoryKV()
		p.scopes[id] = kv
	}
	return kv
}

// Forget drops the values of an evicted browser session.
func (p *MemoryProvider) Forget(id string) {
	p.mu.Lock()
	delete(p.scopes, id)
	p.mu.Unlock()
}
