// Package sample implements the Data Hub's variant, time-stamped value
// type: creation from pooled storage, readers, deep copy, and the JSON
// escape/unescape + type-directed text conversion used by the snapshot
// formatter.
//
// Storage is pooled in size tiers, with create/get/copy semantics that
// keep each Sample's payload immutable once published and reference
// counted back to its pool on release.
package sample

import "fmt"

// DataType is the closed variant of payload kinds a Sample can carry. The
// type itself is never stored in the Sample (it has no type field); the
// owning resource tracks it.
type DataType uint8

const (
	Trigger DataType = iota
	Boolean
	Numeric
	String
	JSON
)

func (t DataType) String() string {
	switch t {
	case Trigger:
		return "trigger"
	case Boolean:
		return "boolean"
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// Now is the sentinel timestamp value passed to the Create* functions to
// request the current wall-clock time at creation. Real timestamps are
// seconds since the Unix epoch, which are always non-negative in practice,
// so a negative sentinel can never collide with a legitimate value.
const Now float64 = -1
