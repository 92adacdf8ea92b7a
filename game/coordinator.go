package game

import (
	"sync"
	"sync/atomic"
)

// maxPending bounds how many intents may queue against one session before
// new ones are rejected as busy.
const maxPending = 64

// coordinator serializes intents per session: at most one caller is inside
// the read-decide-write window for a given session id at any instant.
// Different sessions proceed fully in parallel.
type coordinator struct {
	mu     sync.Mutex
	guards map[string]*sessionGuard
}

type sessionGuard struct {
	mu      sync.Mutex
	pending int32
}

func newCoordinator() *coordinator {
	return &coordinator{guards: make(map[string]*sessionGuard)}
}

func (c *coordinator) guard(sessionID string) *sessionGuard {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.guards[sessionID]
	if !ok {
		g = &sessionGuard{}
		c.guards[sessionID] = g
	}
	return g
}

// do runs fn while holding the session's lock. Callers queue in arrival
// order on the guard mutex; if the backlog exceeds maxPending the intent is
// rejected with ErrBusy instead of piling up.
func (c *coordinator) do(sessionID string, fn func() error) error {
	g := c.guard(sessionID)

	if atomic.AddInt32(&g.pending, 1) > maxPending {
		atomic.AddInt32(&g.pending, -1)
		return ErrBusy
	}
	defer atomic.AddInt32(&g.pending, -1)

	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
