// Package resource implements the Data Hub's Resource type: the policy
// pipeline a pushed value passes through (type, units, range, change,
// minPeriod, override, default), routing edges between resources, push
// handlers with type coercion, and the observation buffer.
//
// The observation buffer is a fixed-capacity head/count ring (buffer.go).
// Push handlers run synchronously, inline with Push, so a slow handler
// delays the push that fired it.
package resource

import (
	"sync"

	"github.com/google/uuid"

	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/tree"
)

// PushHandlerFunc is called synchronously, inline with Push, whenever a
// value is accepted. The value passed in has already been coerced to the
// DataType the handler registered for (see AddPushHandler).
type PushHandlerFunc func(value *sample.Sample, dataType sample.DataType)

type pushHandlerEntry struct {
	wantType sample.DataType
	fn       PushHandlerFunc
}

// Resource is the policy and routing state attached to a non-Namespace
// resource-tree entry. One Resource belongs to exactly one *tree.Entry
// (entry.Attachment() recovers it); the Resource in turn holds a back
// pointer so operations that only have the Resource can still touch the
// tree (update lastModified, check deletion state).
type Resource struct {
	mu    sync.Mutex
	entry *tree.Entry
	kind  tree.EntryType

	units string

	// declaredType is fixed at creation for Input/Output resources (the
	// type acceptance check in Push compares against it); Observation and
	// Placeholder resources have no declared type, since their type may
	// change as samples arrive.
	declaredType    sample.DataType
	hasDeclaredType bool

	currentType  sample.DataType
	currentValue *sample.Sample
	hasCurrent   bool

	// source is the resource this one's value is routed from (Output ->
	// Observation/Input routing), nil if this resource is fed directly by
	// Push calls instead. destinations is the reverse, non-owning edge set:
	// every resource that has this one as its source.
	source       *Resource
	destinations []*Resource

	override     *sample.Sample
	overrideType sample.DataType
	hasOverride  bool

	defaultValue *sample.Sample
	defaultType  sample.DataType
	hasDefault   bool

	pushHandlers map[uuid.UUID]pushHandlerEntry

	// Observation-only policy. Zero values mean "no filter configured".
	minPeriod          float64
	hasRange           bool
	lowLimit, highLimit float64
	hasChangeBy        bool
	changeBy           float64
	lastPushTime       float64

	bufferMaxCount     int
	bufferBackupPeriod float64
	buffer             *ring
}

// Entry returns the resource-tree entry this resource is attached to.
func (r *Resource) Entry() *tree.Entry { return r.entry }

// Kind returns which of Input/Output/Observation/Placeholder this resource
// is.
func (r *Resource) Kind() tree.EntryType { return r.kind }

// FromEntry recovers the *Resource attached to e, or nil if e has no
// resource attached (a Namespace entry, or a leaf that was created but
// never attached).
func FromEntry(e *tree.Entry) *Resource {
	res, _ := e.Attachment().(*Resource)
	return res
}
