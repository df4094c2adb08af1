package services

import (
	"context"
	"sync"
)

type activeSearch struct {
	token  uint64
	cancel context.CancelFunc
}

// SearchCoordinator tracks the latest search per session. Starting a new
// search cancels the previous one so late results are never shown.
type SearchCoordinator struct {
	mu     sync.Mutex
	next   uint64
	active map[string]activeSearch
}

// NewSearchCoordinator creates an empty coordinator.
func NewSearchCoordinator() *SearchCoordinator {
	return &SearchCoordinator{active: make(map[string]activeSearch)}
}

// Begin registers a new search for the session and returns its context
// and token. Any earlier search for the session is cancelled.
func (c *SearchCoordinator) Begin(parent context.Context, sessionID string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.active[sessionID]; ok {
		prev.cancel()
	}
	c.next++
	c.active[sessionID] = activeSearch{token: c.next, cancel: cancel}
	return ctx, c.next
}

// IsCurrent reports whether token is still the latest search for the session.
func (c *SearchCoordinator) IsCurrent(sessionID string, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.active[sessionID]
	return ok && a.token == token
}

// End releases the search if it is still current.
func (c *SearchCoordinator) End(sessionID string, token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.active[sessionID]; ok && a.token == token {
		a.cancel()
		delete(c.active, sessionID)
	}
}
