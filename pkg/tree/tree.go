package tree

import (
	"strings"
	"sync"

	"github.com/galpt/datahub/pkg/herrors"
)

// Tree owns the resource tree's root and the single read/write lock that
// coordinates mutation (creating/deleting entries) against traversal (the
// snapshot engine walking the tree mid-pass). It is a sync.RWMutex:
// StartUpdate/EndUpdate take it for writing, and WithReadLock lets any
// number of readers traverse the tree at once.
type Tree struct {
	mu   sync.RWMutex
	root *Entry

	trackDeletions bool
	deleted        []*Entry
}

// New creates an empty tree with just a root Namespace entry.
func New() *Tree {
	return &Tree{
		root:           &Entry{name: "", entryType: Namespace},
		trackDeletions: true,
	}
}

// Root returns the tree's root entry.
func (t *Tree) Root() *Entry { return t.root }

// StartUpdate acquires the tree's write lock. Pair with EndUpdate.
func (t *Tree) StartUpdate() { t.mu.Lock() }

// EndUpdate releases the tree's write lock.
func (t *Tree) EndUpdate() { t.mu.Unlock() }

// WithReadLock runs fn holding the tree's read lock, for traversal
// (snapshot passes) that must not race with StartUpdate/EndUpdate mutation.
func (t *Tree) WithReadLock(fn func()) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn()
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// FindEntry looks up an absolute path, returning herrors.ErrNotFound if any
// segment along the way doesn't exist.
func (t *Tree) FindEntry(path string) (*Entry, error) {
	segments := splitPath(path)
	n := t.root
	for _, seg := range segments {
		next := n.FirstChild(false)
		var found *Entry
		for c := next; c != nil; c = c.NextSibling(false) {
			if c.name == seg {
				found = c
				break
			}
		}
		if found == nil {
			return nil, herrors.ErrNotFound
		}
		n = found
	}
	return n, nil
}

// GetOrCreateEntry walks path, creating Namespace entries for any missing
// intermediate segments and a final entry of entryType for the last
// segment. If the final entry already exists with a different type,
// herrors.ErrDuplicate is returned, with two exceptions: an existing
// Placeholder is promoted in place to entryType (matches the original's
// admin-settings-transplant behavior for resources created after their
// Placeholder was set up by an override/default), and a request for a
// Placeholder returns the existing entry with its type unchanged.
func (t *Tree) GetOrCreateEntry(path string, entryType EntryType) (*Entry, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, herrors.ErrBadParameter
	}
	n := t.root
	for i, seg := range segments {
		last := i == len(segments)-1
		wantType := Namespace
		if last {
			wantType = entryType
		}
		child := findChildByName(n, seg)
		if child == nil {
			child = &Entry{name: seg, parent: n, entryType: wantType, isNew: true}
			n.children = append(n.children, child)
		} else if last {
			if child.entryType != wantType {
				if child.entryType == Placeholder {
					child.entryType = wantType
				} else if wantType != Placeholder {
					return nil, herrors.ErrDuplicate
				}
			}
		} else if child.entryType != Namespace {
			return nil, herrors.ErrDuplicate
		}
		n = child
	}
	return n, nil
}

func findChildByName(parent *Entry, name string) *Entry {
	for c := parent.FirstChild(true); c != nil; c = c.NextSibling(true) {
		if c.name == name {
			return c
		}
	}
	return nil
}

// SetDeletionTracking enables or disables deletion tracking. Turning it off
// triggers an immediate recursive flush of every entry currently marked
// deleted (query_TrackDeletions(false) in the original), permanently
// removing them from their parents' child lists.
func (t *Tree) SetDeletionTracking(enabled bool) {
	t.trackDeletions = enabled
	if !enabled {
		t.FlushDeletions()
	}
}

// MarkDeleted flags e as deleted; its ancestors are not flagged. If deletion tracking is
// disabled the entry and any now-empty ancestor namespaces are removed from
// the tree immediately instead of being kept around as a tombstone.
func (t *Tree) MarkDeleted(e *Entry) {
	e.isDeleted = true
	t.deleted = append(t.deleted, e)
	if !t.trackDeletions {
		t.FlushDeletions()
	}
}

// ReapEntry permanently removes e from its parent's child list and drops it
// from the pending-deletion list, collapsing any Namespace ancestor left
// with no children. pkg/hub's TakeSnapshot calls it, under the write lock,
// for each entry a DELETED-filtered pass recorded (snapshot.Engine.Reaped)
// once that read-locked traversal has finished, instead of flushing the
// whole pending list at once.
func (t *Tree) ReapEntry(e *Entry) {
	removeFromParent(e)
	for i, d := range t.deleted {
		if d == e {
			t.deleted = append(t.deleted[:i], t.deleted[i+1:]...)
			break
		}
	}
}

// FlushDeletions permanently removes every entry marked deleted from its
// parent's child list, recursively collapsing any Namespace ancestor left
// with no children. Matches FlushDeletionRecords in the original.
func (t *Tree) FlushDeletions() {
	pending := t.deleted
	t.deleted = nil
	for _, e := range pending {
		removeFromParent(e)
	}
}

func removeFromParent(e *Entry) {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	if p.entryType == Namespace && len(p.children) == 0 && p.parent != nil {
		removeFromParent(p)
	}
}
