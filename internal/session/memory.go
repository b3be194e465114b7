package session

import (
	"context"
	"sync"

	"github.com/angelmondragon/quickdeals/pkg/enums"
)

// MemoryGuard keeps session state in process.
type MemoryGuard struct {
	mu        sync.Mutex
	executing map[string]struct{}
}

// NewMemoryGuard returns an empty in-process guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{executing: map[string]struct{}{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.executing[id]; busy {
		return false, nil
	}
	g.executing[id] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.executing, id)
	return nil
}

func (g *MemoryGuard) State(_ context.Context, id string) (enums.SessionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.executing[id]; busy {
		return enums.SessionStateExecuting, nil
	}
	return enums.SessionStateIdle, nil
}
