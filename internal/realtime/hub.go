// Package realtime fans full-collection snapshots out to live subscribers.
//
// Every snapshot carries a revision drawn from a single counter. Revisions
// are taken after a mutation commits and before the collection is re-read,
// so a higher revision always reflects at least as much committed state as
// a lower one. Subscribers keep only the newest pending snapshot per
// collection and never receive a revision older than one already delivered.
package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/testboard/engine/pkg/logger"
)

// Collection names a published collection.
type Collection string

const (
	Projects  Collection = "projects"
	Features  Collection = "features"
	TestCases Collection = "testCases"
)

// Snapshot is the full contents of one collection at a revision.
type Snapshot struct {
	Revision   uint64     `json:"revision"`
	Collection Collection `json:"collection"`
	Items      any        `json:"items"`
}

// Loader reads the current contents of a collection.
type Loader func(ctx context.Context) (any, error)

// ErrClosed is returned by Subscription.Next once the hub has shut down.
var ErrClosed = errors.New("realtime: hub closed")

// Hub tracks subscribers and the revision counter.
type Hub struct {
	rev      atomic.Uint64
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	done     chan struct{}
	shutdown sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{}), done: make(chan struct{})}
}

// Shutdown wakes every subscription with ErrClosed. It is safe to call more
// than once.
func (h *Hub) Shutdown() {
	h.shutdown.Do(func() { close(h.done) })
}

// Revision returns the last revision handed out.
func (h *Hub) Revision() uint64 { return h.rev.Load() }

// Refresh stamps a new revision, loads the collection and publishes it.
// Call it after the mutation that changed c has committed.
func (h *Hub) Refresh(ctx context.Context, c Collection, load Loader) {
	rev := h.rev.Add(1)
	items, err := load(ctx)
	if err != nil {
		logger.L().Warn("realtime snapshot load failed",
			zap.String("collection", string(c)), zap.Uint64("revision", rev), zap.Error(err))
		return
	}
	h.publish(Snapshot{Revision: rev, Collection: c, Items: items})
}

// Load stamps a revision and reads c without publishing, for seeding a new
// subscriber.
func (h *Hub) Load(ctx context.Context, c Collection, load Loader) (Snapshot, error) {
	rev := h.rev.Add(1)
	items, err := load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Revision: rev, Collection: c, Items: items}, nil
}

func (h *Hub) publish(s Snapshot) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.offer(s)
	}
}

// Subscribe registers a subscriber. Call Close when done.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub:       h,
		pending:   make(map[Collection]Snapshot),
		delivered: make(map[Collection]uint64),
		notify:    make(chan struct{}, 1),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscription receives snapshots from a Hub.
type Subscription struct {
	hub       *Hub
	mu        sync.Mutex
	pending   map[Collection]Snapshot
	delivered map[Collection]uint64
	notify    chan struct{}
}

// Seed queues an initial snapshot, typically the state at connect time.
func (s *Subscription) Seed(snap Snapshot) { s.offer(snap) }

func (s *Subscription) offer(snap Snapshot) {
	s.mu.Lock()
	if cur, ok := s.pending[snap.Collection]; !ok || snap.Revision > cur.Revision {
		s.pending[snap.Collection] = snap
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until at least one fresh snapshot is available and returns
// them ordered by revision.
func (s *Subscription) Next(ctx context.Context) ([]Snapshot, error) {
	for {
		if out := s.drain(); len(out) > 0 {
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.hub.done:
			return nil, ErrClosed
		case <-s.notify:
		}
	}
}

func (s *Subscription) drain() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Snapshot
	for c, snap := range s.pending {
		delete(s.pending, c)
		if snap.Revision <= s.delivered[c] {
			continue
		}
		s.delivered[c] = snap.Revision
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
}
