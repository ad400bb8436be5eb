// Package snapshot implements the Data Hub's outer cooperative state
// machine: a non-recursive walk of the relevant subset of the resource
// tree, one step at a time, so it can pause at a backpressured sink and
// resume later without blocking the caller's event loop.
//
// The walk's NODE_BEGIN/NODE_CHILDREN/NODE_END/NODE_SIBLING/TREE_END
// transitions and the bottom-up relevance recursion follow a classic
// resumable tree-walk shape; the non-blocking-sink / "retry later" texture
// matches a broadcast loop that never blocks on a slow reader.
package snapshot

import (
	"errors"

	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/tree"
)

// MaxPasses is the original's pass limit, 10. Nothing in this package
// enforces it. pkg/hub's default retry budget has the same value: hub.New
// re-runs a pass that stopped on ErrWouldBlock at most 10 more times
// before it gives up with herrors.ErrOutOfRange (see hub.WithMaxPasses).
const MaxPasses = 10

// ErrWouldBlock is returned by a Formatter method when its sink cannot
// accept more bytes right now. It isn't a real failure: Engine.Run returns
// it unchanged with done == false, and the caller is expected to retry Run
// once the sink drains (see pkg/jsonformat's Formatter and ChanSink).
var ErrWouldBlock = errors.New("snapshot: sink would block")

// FilterMask selects which nodes self-qualify for relevance in a given
// snapshot pass. A node self-qualifies if the mask contains Created and the
// node IsNew, or contains Deleted and the node IsDeleted, or contains
// either Created or Normal and the node is timely (LastModified > since).
// A live-data pass uses Created|Normal; a deletion-reporting pass uses
// Deleted alone.
type FilterMask uint8

const (
	// FilterCreated selects nodes that are new since the last pass.
	FilterCreated FilterMask = 1 << iota
	// FilterNormal selects timely nodes alongside FilterCreated (the two
	// bits share the "timely" self-qualification clause).
	FilterNormal
	// FilterDeleted selects nodes marked deleted but not yet reaped.
	FilterDeleted
)

// Formatter receives the structural events of a tree walk and turns them
// into encoded output. Each method may return ErrWouldBlock to pause the
// walk exactly at that point; Engine.Run will retry the same call on the
// next invocation rather than skipping ahead.
type Formatter interface {
	BeginPass(rootPath string, ts float64, filter FilterMask) error
	BeginNode(e *tree.Entry) error
	EmitValue(e *tree.Entry, res *resource.Resource) error
	EndNode(e *tree.Entry) error
	EndPass() error
}

type stepState uint8

const (
	stateNodeBegin stepState = iota
	stateNodeValues
	stateNodeChildren
	stateNodeEnd
)

type frame struct {
	entry       *tree.Entry
	state       stepState
	nextChild   *tree.Entry
	reapPending *tree.Entry
}
