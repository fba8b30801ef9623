package service

import (
	"context"
	"sync"
)

// Generations tracks the newest refresh per view. Starting a refresh cancels
// the previous one for the same view, and a refresh that finishes after a
// newer one started is reported stale.
type Generations struct {
	mu    sync.Mutex
	next  uint64
	views map[string]*inflight
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

func NewGenerations() *Generations {
	return &Generations{views: make(map[string]*inflight)}
}

// Ticket identifies one refresh.
type Ticket struct {
	g      *Generations
	view   string
	gen    uint64
	cancel context.CancelFunc
}

// Begin registers a refresh for viewID. An empty viewID is untracked.
func (g *Generations) Begin(ctx context.Context, viewID string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	if viewID == "" {
		return ctx, Ticket{cancel: cancel}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	if prev, ok := g.views[viewID]; ok {
		prev.cancel()
	}
	g.views[viewID] = &inflight{gen: g.next, cancel: cancel}
	return ctx, Ticket{g: g, view: viewID, gen: g.next, cancel: cancel}
}

func (t Ticket) Generation() uint64 {
	return t.gen
}

// Current reports whether no newer refresh has started for the view.
func (t Ticket) Current() bool {
	if t.g == nil {
		return true
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	entry, ok := t.g.views[t.view]
	return ok && entry.gen == t.gen
}

// Done releases the refresh context and forgets the view if it is still
// the newest.
func (t Ticket) Done() {
	t.cancel()
	if t.g == nil {
		return
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if entry, ok := t.g.views[t.view]; ok && entry.gen == t.gen {
		delete(t.g.views, t.view)
	}
}
