package tree

// Entry is one node of the resource tree. Namespace entries are directories;
// the rest attach a resource (an opaque value from this package's point of
// view, see Attach/Attachment).
type Entry struct {
	name       string
	parent     *Entry
	children   []*Entry
	entryType  EntryType
	attachment any

	lastModified float64
	isNew        bool
	isDeleted    bool
	isRelevant   bool
	isMandatory  bool
}

// Name returns the entry's own path segment (not its full path).
func (e *Entry) Name() string { return e.name }

// Parent returns the entry's parent, or nil for the root.
func (e *Entry) Parent() *Entry { return e.parent }

// Type returns the entry's kind.
func (e *Entry) Type() EntryType { return e.entryType }

// Path reconstructs the entry's absolute path, e.g. "/orig/path/name". The
// root's path is "/".
func (e *Entry) Path() string {
	if e.parent == nil {
		return "/"
	}
	segments := make([]string, 0, 8)
	for n := e; n.parent != nil; n = n.parent {
		segments = append(segments, n.name)
	}
	out := make([]byte, 0, 64)
	for i := len(segments) - 1; i >= 0; i-- {
		out = append(out, '/')
		out = append(out, segments[i]...)
	}
	return string(out)
}

// Attach stores the owning resource on the entry. pkg/resource calls this
// once, right after creating the resource, and type-asserts the result back
// out of Attachment when it needs to recover a *resource.Resource from an
// *Entry it was handed.
func (e *Entry) Attach(res any) { e.attachment = res }

// Attachment returns whatever was passed to Attach, or nil for a Namespace
// entry or a leaf entry that hasn't been attached yet.
func (e *Entry) Attachment() any { return e.attachment }

// FirstChild returns the entry's first child, optionally including children
// marked deleted but not yet reaped (see Tree.FlushDeletions). Matches
// resTree_GetFirstChildEx's visibility argument.
func (e *Entry) FirstChild(includeDeleted bool) *Entry {
	for _, c := range e.children {
		if includeDeleted || !c.isDeleted {
			return c
		}
	}
	return nil
}

// NextSibling returns the next sibling after e under the same parent, with
// the same deletion-visibility rule as FirstChild. Matches
// resTree_GetNextSiblingEx.
func (e *Entry) NextSibling(includeDeleted bool) *Entry {
	if e.parent == nil {
		return nil
	}
	idx := -1
	for i, c := range e.parent.children {
		if c == e {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	for i := idx + 1; i < len(e.parent.children); i++ {
		c := e.parent.children[i]
		if includeDeleted || !c.isDeleted {
			return c
		}
	}
	return nil
}

// ChildCount returns the number of children, including deleted-but-unreaped
// ones. Mostly useful for tests.
func (e *Entry) ChildCount() int { return len(e.children) }

// LastModified returns the timestamp of the most recent value accepted by
// this entry's resource (zero for an entry with no resource, or one that
// has never received a value). Namespace entries don't aggregate their
// children's timestamps here; the snapshot engine's relevance pass does
// that bottom-up walk itself, since it also needs per-pass state the tree
// doesn't track.
func (e *Entry) LastModified() float64 { return e.lastModified }

// Touch records ts as the entry's last-modified time if it is more recent
// than what's already stored. Called by pkg/resource whenever a pushed
// value is accepted. It deliberately leaves the "new" flag alone: an
// entry created and immediately pushed to is still new until a snapshot
// pass has actually observed it and called ClearNewness, not merely
// because it received a value.
func (e *Entry) Touch(ts float64) {
	if ts > e.lastModified {
		e.lastModified = ts
	}
}

// IsNew reports whether this entry was created since the last time
// ClearNewness was called on it (or ever, if it never has been).
func (e *Entry) IsNew() bool { return e.isNew }

// ClearNewness marks the entry as no longer new. Called by the snapshot
// engine after a pass has emitted the entry; entries a pass skips as
// irrelevant keep their newness.
func (e *Entry) ClearNewness() { e.isNew = false }

// IsDeleted reports whether the entry has been marked for deletion but not
// yet reaped.
func (e *Entry) IsDeleted() bool { return e.isDeleted }

// IsRelevant returns the per-pass relevance scratch flag the snapshot engine
// sets during its bottom-up relevance computation.
func (e *Entry) IsRelevant() bool { return e.isRelevant }

// SetRelevant sets the per-pass relevance scratch flag.
func (e *Entry) SetRelevant(v bool) { e.isRelevant = v }

// IsMandatory reports whether an administrator has flagged this entry as
// required to carry a value. Nothing in this package's operations sets it
// yet; it exists so the JSON formatter's NODE shape has a field to emit,
// mirroring the wire format's "mandatory" key.
func (e *Entry) IsMandatory() bool { return e.isMandatory }

// SetMandatory sets the mandatory flag.
func (e *Entry) SetMandatory(v bool) { e.isMandatory = v }
