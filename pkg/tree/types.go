// Package tree implements the Data Hub's resource tree: a namespace
// hierarchy of named entries, each optionally holding an attached
// resource, with path lookup, deletion-aware child iteration, and the
// per-snapshot-pass relevance/newness scratch flags the snapshot engine
// drives.
//
// Entries follow a plain "named node with children" layout; the attached
// resource is opaque to this package (see Entry.Attach) to avoid an import
// cycle with pkg/resource.
package tree

import "fmt"

// EntryType is the kind of a resource-tree entry. Namespace entries are pure
// path segments with no attached resource; the other four carry a resource
// (attached via Entry.Attach; tree does not know the resource's shape, to
// avoid an import cycle between this package and pkg/resource).
type EntryType uint8

const (
	Namespace EntryType = iota
	Input
	Output
	Observation
	Placeholder
)

func (t EntryType) String() string {
	switch t {
	case Namespace:
		return "namespace"
	case Input:
		return "input"
	case Output:
		return "output"
	case Observation:
		return "observation"
	case Placeholder:
		return "placeholder"
	default:
		return fmt.Sprintf("EntryType(%d)", uint8(t))
	}
}

// HasResource reports whether entries of this type carry an attached
// resource (everything except Namespace).
func (t EntryType) HasResource() bool {
	return t != Namespace
}
