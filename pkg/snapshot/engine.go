package snapshot

import (
	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/tree"
)

// Engine drives one snapshot pass over a tree under a single filter mask.
// Create one with New or NewAt, then call Run repeatedly (a deferred-
// function/event-loop caller would call it once per loop turn) until it
// reports done or a real error. An ErrWouldBlock error (with done == false)
// means the formatter's sink is full and the engine is paused mid-walk;
// call Run again once the sink has drained.
//
// A full snapshot is typically two Engine passes sharing one Formatter: a
// live-data pass with filter Created|Normal, and, when the caller wants
// deletions reported, a second pass with filter Deleted and reap enabled,
// which walks tombstoned entries the first pass skips and, right after
// each one's NODE has been emitted, records it in Reaped for the caller to
// retire from the tree once traversal has finished. Reaping is left to the
// caller rather than done inline because the walk runs under the tree's
// read lock, and unlinking an entry is a structural mutation that needs
// the write lock instead.
type Engine struct {
	tree      *tree.Tree
	root      *tree.Entry
	formatter Formatter
	since     float64
	ts        float64
	filter    FilterMask
	reap      bool

	stack   []*frame
	started bool
	done    bool
	reaped  []*tree.Entry
}

// New creates an Engine for one snapshot pass over the whole tree under
// filter, recording visited deleted entries for the caller to reap (see
// Reaped) if reap is true.
func New(t *tree.Tree, formatter Formatter, since, ts float64, filter FilterMask, reap bool) *Engine {
	return NewAt(t, t.Root(), formatter, since, ts, filter, reap)
}

// NewAt creates an Engine for one snapshot pass rooted at a specific entry
// rather than the tree root, for query requests scoped to a subtree path.
func NewAt(t *tree.Tree, root *tree.Entry, formatter Formatter, since, ts float64, filter FilterMask, reap bool) *Engine {
	return &Engine{tree: t, root: root, formatter: formatter, since: since, ts: ts, filter: filter, reap: reap}
}

func (eng *Engine) start() error {
	root := eng.root
	updateRelevance(root, eng.since, eng.filter, true)
	if err := eng.formatter.BeginPass(root.Path(), eng.ts, eng.filter); err != nil {
		return err
	}
	eng.stack = []*frame{{entry: root, state: stateNodeBegin}}
	eng.started = true
	return nil
}

// Run advances the walk until it completes, hits ErrWouldBlock, or hits a
// real error. It returns done == true only once the whole pass (including
// the formatter's EndPass) has completed successfully.
func (eng *Engine) Run() (done bool, err error) {
	if eng.done {
		return true, nil
	}
	if !eng.started {
		if err := eng.start(); err != nil {
			return false, err
		}
	}
	for {
		if len(eng.stack) == 0 {
			if err := eng.formatter.EndPass(); err != nil {
				return false, err
			}
			eng.done = true
			return true, nil
		}
		blocked, err := eng.step()
		if err != nil {
			return false, err
		}
		if blocked {
			return false, nil
		}
	}
}

// step performs one state transition of the top-of-stack frame. It never
// reports blocked == true; when a formatter call fails it returns that
// error (typically ErrWouldBlock) unmodified and leaves the frame's state
// as it was, so the next Run retries the same call.
func (eng *Engine) step() (blocked bool, err error) {
	top := eng.stack[len(eng.stack)-1]
	includeDeleted := eng.filter&FilterDeleted != 0
	switch top.state {
	case stateNodeBegin:
		if !top.entry.IsRelevant() {
			eng.pop()
			return false, nil
		}
		if err := eng.formatter.BeginNode(top.entry); err != nil {
			return false, err
		}
		top.state = stateNodeValues
		return false, nil
	case stateNodeValues:
		if res := resource.FromEntry(top.entry); res != nil {
			if err := eng.formatter.EmitValue(top.entry, res); err != nil {
				return false, err
			}
		}
		top.entry.ClearNewness()
		top.state = stateNodeChildren
		top.nextChild = top.entry.FirstChild(includeDeleted)
		return false, nil
	case stateNodeChildren:
		// Sibling transition: the previous child's subtree (if any) has
		// been fully walked and emitted, so it can now be reaped.
		eng.reapPending(top)
		if top.nextChild != nil {
			child := top.nextChild
			top.nextChild = child.NextSibling(includeDeleted)
			top.reapPending = child
			eng.push(child)
			return false, nil
		}
		top.state = stateNodeEnd
		return false, nil
	case stateNodeEnd:
		eng.reapPending(top)
		if err := eng.formatter.EndNode(top.entry); err != nil {
			return false, err
		}
		eng.pop()
		return false, nil
	default:
		eng.pop()
		return false, nil
	}
}

// reapPending records top.reapPending as ready for reaping if this engine
// was asked to reap visited deleted entries, then clears the field either
// way. The caller retires recorded entries from the tree via Reaped once
// the whole pass has completed and the read lock held during traversal has
// been released.
func (eng *Engine) reapPending(top *frame) {
	if top.reapPending == nil {
		return
	}
	if eng.reap && top.reapPending.IsDeleted() {
		eng.reaped = append(eng.reaped, top.reapPending)
	}
	top.reapPending = nil
}

// Reaped returns the deleted entries this pass walked and emitted, ready
// for the caller to retire from the tree with Tree.ReapEntry under the
// write lock.
func (eng *Engine) Reaped() []*tree.Entry {
	return eng.reaped
}

func (eng *Engine) push(e *tree.Entry) {
	eng.stack = append(eng.stack, &frame{entry: e, state: stateNodeBegin})
}

func (eng *Engine) pop() {
	eng.stack = eng.stack[:len(eng.stack)-1]
}
