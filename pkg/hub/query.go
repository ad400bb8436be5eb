package hub

import (
	"github.com/galpt/datahub/pkg/herrors"
	"github.com/galpt/datahub/pkg/jsonformat"
	"github.com/galpt/datahub/pkg/snapshot"
	"github.com/galpt/datahub/pkg/tree"
)

// Format enumerates the snapshot formatters a query can request. Only JSON
// is implemented; any other value is rejected with herrors.ErrNotImplemented,
// matching the original treating an unrecognized format identifier as a
// configuration error rather than a silent no-op.
type Format int

const (
	// FormatJSON selects pkg/jsonformat, the only implemented formatter.
	FormatJSON Format = iota
)

// SnapshotFlags are bitwise-ORed flags accepted by TakeSnapshot.
type SnapshotFlags uint

const (
	// FlushDeletions reports (and then permanently forgets) every entry
	// deleted since the last snapshot, via the JSON document's "deleted"
	// NODE tree. Without it, deletions accumulate as tombstones but are never
	// surfaced or flushed by a snapshot call.
	FlushDeletions SnapshotFlags = 1 << iota
)

// BeginningOfTime is the since sentinel meaning "include every node",
// matching BEGINNING_OF_TIME in the original: no node's LastModified can
// be less than or equal to it.
const BeginningOfTime float64 = -1

// SnapshotResult holds the terminal outcome of a snapshot. Ok is the zero
// value so a freshly-declared SnapshotResult reads as success. TakeSnapshot
// reports its outcome through its returned error and does not produce a
// SnapshotResult.
type SnapshotResult struct {
	Err error
}

// TakeSnapshot walks path (default "/" for the whole tree), rendering every
// node relevant since the since threshold through the requested formatter,
// and returns an io.Reader the caller drains for the encoded bytes. The
// snapshot itself runs synchronously to completion before TakeSnapshot
// returns (there is no separate event-loop thread to hand bytes to
// asynchronously in this embedded port); done is reported via the returned
// error rather than a later callback, which plays the same role as the
// original's resultCallback.
//
// Busy is returned if another snapshot is already in flight (only one
// active snapshot state record exists at a time, per the concurrency
// model); OutOfRange is returned if a pass is still blocked on a full sink
// after h.maxPasses retries (see WithMaxPasses).
func (h *Hub) TakeSnapshot(format Format, flags SnapshotFlags, path string, since float64) (*jsonformat.ChanSink, error) {
	if format != FormatJSON {
		return nil, herrors.ErrNotImplemented
	}

	h.mu.Lock()
	if h.snapshotInFlight {
		h.mu.Unlock()
		return nil, herrors.ErrBusy
	}
	h.snapshotInFlight = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.snapshotInFlight = false
		h.mu.Unlock()
	}()

	var runErr error
	var reaped []*tree.Entry
	sink := jsonformat.NewChanSink(h.snapshotSinkCapacity)
	formatter := jsonformat.New(sink)

	h.tree.WithReadLock(func() {
		root := h.tree.Root()
		if path != "/" && path != "" {
			var err error
			root, err = h.tree.FindEntry(path)
			if err != nil {
				runErr = err
				return
			}
		}

		if _, err := h.runPass(formatter, root, since, snapshot.FilterCreated|snapshot.FilterNormal, false); err != nil {
			runErr = err
			return
		}
		if flags&FlushDeletions != 0 {
			eng, err := h.runPass(formatter, root, since, snapshot.FilterDeleted, true)
			if err != nil {
				runErr = err
				return
			}
			reaped = eng.Reaped()
		}
	})
	if runErr != nil {
		return nil, runErr
	}

	// Retiring the entries the DELETED pass walked is a structural
	// mutation, so it happens under the write lock, after the read-locked
	// traversal above has released it.
	if len(reaped) > 0 {
		h.tree.StartUpdate()
		for _, e := range reaped {
			h.tree.ReapEntry(e)
		}
		h.tree.EndUpdate()
	}

	runErr = formatter.Finish()
	sink.Close()
	if runErr != nil {
		return nil, runErr
	}
	return sink, nil
}

// runPass drives one Engine pass to completion under the tree's read lock,
// retrying on snapshot.ErrWouldBlock up to h.maxPasses times. The bound
// applies to each pass separately, not to the snapshot as a whole. It
// returns the Engine so the caller can collect any entries flagged for
// reaping.
func (h *Hub) runPass(formatter *jsonformat.Formatter, root *tree.Entry, since float64, filter snapshot.FilterMask, reap bool) (*snapshot.Engine, error) {
	eng := snapshot.NewAt(h.tree, root, formatter, since, nowTimestamp(), filter, reap)
	for pass := 0; ; pass++ {
		if pass > h.maxPasses {
			return eng, herrors.ErrOutOfRange
		}
		done, err := eng.Run()
		if err == snapshot.ErrWouldBlock {
			continue
		}
		if err != nil {
			return eng, err
		}
		if done {
			return eng, nil
		}
	}
}
