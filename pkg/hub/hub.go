// Package hub wires together pkg/tree, pkg/resource, pkg/snapshot, and
// pkg/jsonformat into the Data Hub's public surface: a Publisher API for
// apps pushing/reading values, an Administrator API for default/override/
// policy configuration, and a Query API for taking JSON snapshots.
//
// Construction uses functional options rather than a positional
// constructor or config file, since there's no multi-file config format
// this type of process needs.
package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/galpt/datahub/pkg/hublog"
	"github.com/galpt/datahub/pkg/tree"
)

// TreeChangeHandlerFunc is called whenever a resource is created or
// deleted. changeKind is "created" or "deleted".
type TreeChangeHandlerFunc func(path string, changeKind string)

// Hub is the Data Hub instance: one resource tree plus the handler
// registries and tunables that sit above pkg/tree/pkg/resource.
type Hub struct {
	mu   sync.Mutex
	tree *tree.Tree

	treeChangeHandlers map[uuid.UUID]TreeChangeHandlerFunc

	maxPasses            int
	snapshotSinkCapacity int
	snapshotInFlight     bool
}

// Option configures a Hub at construction time.
type Option func(*Hub)

// WithMaxPasses overrides the snapshot engine's retry budget (see
// pkg/snapshot.MaxPasses for what it guards against).
func WithMaxPasses(n int) Option {
	return func(h *Hub) { h.maxPasses = n }
}

// WithSnapshotSinkCapacity sets how many pending chunks a snapshot's
// ChanSink will buffer before backpressuring.
func WithSnapshotSinkCapacity(n int) Option {
	return func(h *Hub) { h.snapshotSinkCapacity = n }
}

// New creates an empty Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		tree:                 tree.New(),
		treeChangeHandlers:   make(map[uuid.UUID]TreeChangeHandlerFunc),
		maxPasses:            10,
		snapshotSinkCapacity: 64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Tree exposes the underlying resource tree for callers that need direct
// read access. Mutating it outside this
// package's methods bypasses tree-change notification.
func (h *Hub) Tree() *tree.Tree { return h.tree }

// AddTreeChangeHandler registers fn to be called on every resource create
// or delete. Returns an opaque handle for RemoveTreeChangeHandler.
func (h *Hub) AddTreeChangeHandler(fn TreeChangeHandlerFunc) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := uuid.New()
	h.treeChangeHandlers[id] = fn
	return id
}

// RemoveTreeChangeHandler unregisters a handler added with
// AddTreeChangeHandler.
func (h *Hub) RemoveTreeChangeHandler(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.treeChangeHandlers, id)
}

func (h *Hub) notifyTreeChange(path, changeKind string) {
	h.mu.Lock()
	handlers := make([]TreeChangeHandlerFunc, 0, len(h.treeChangeHandlers))
	for _, fn := range h.treeChangeHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()
	for _, fn := range handlers {
		fn(path, changeKind)
	}
	hublog.Logger.Debug().Str("path", path).Str("change", changeKind).Msg("tree change")
}

// nowTimestamp returns the current time as the float64-seconds timestamp
// format every sample and snapshot in this package uses.
func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
