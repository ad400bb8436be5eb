package resource

import (
	"github.com/google/uuid"

	"github.com/galpt/datahub/pkg/herrors"
	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/tree"
)

func create(t *tree.Tree, path string, kind tree.EntryType) (*Resource, error) {
	entry, err := t.GetOrCreateEntry(path, kind)
	if err != nil {
		return nil, err
	}
	existing := FromEntry(entry)
	if existing != nil && existing.kind == kind {
		return existing, nil
	}
	res := &Resource{
		entry:        entry,
		kind:         kind,
		pushHandlers: make(map[uuid.UUID]pushHandlerEntry),
	}
	entry.Attach(res)
	if existing != nil && existing.kind == tree.Placeholder {
		// The entry already existed as a Placeholder (admin settings
		// configured before any app showed up); transplant those settings
		// onto the freshly created real resource, matching
		// res_MoveAdminSettings in the original.
		MoveAdminSettings(existing, res)
	}
	return res, nil
}

// createTyped is create, plus the declared (dataType, units) an Input or
// Output carries for its lifetime. Re-creating an existing resource of the
// same kind with an identical (dataType, units) pair is idempotent; any
// mismatch returns herrors.ErrDuplicate rather than silently overwriting
// the declaration.
func createTyped(t *tree.Tree, path string, kind tree.EntryType, dataType sample.DataType, units string) (*Resource, error) {
	entry, err := t.GetOrCreateEntry(path, kind)
	if err != nil {
		return nil, err
	}
	existing := FromEntry(entry)
	if existing != nil && existing.kind == kind {
		existing.mu.Lock()
		sameType := existing.hasDeclaredType && existing.declaredType == dataType
		sameUnits := existing.units == units
		existing.mu.Unlock()
		if sameType && sameUnits {
			return existing, nil
		}
		return nil, herrors.ErrDuplicate
	}
	res := &Resource{
		entry:           entry,
		kind:            kind,
		units:           units,
		declaredType:    dataType,
		hasDeclaredType: true,
		pushHandlers:    make(map[uuid.UUID]pushHandlerEntry),
	}
	entry.Attach(res)
	if existing != nil && existing.kind == tree.Placeholder {
		MoveAdminSettings(existing, res)
	}
	return res, nil
}

// CreateInput creates (or returns the existing) Input resource at path: a
// leaf that an app pushes values into from outside the Hub, with its
// dataType and units fixed for the resource's lifetime.
func CreateInput(t *tree.Tree, path string, dataType sample.DataType, units string) (*Resource, error) {
	return createTyped(t, path, tree.Input, dataType, units)
}

// CreateOutput creates (or returns the existing) Output resource at path: a
// leaf an app publishes computed/actuator-state values to, with its
// dataType and units fixed for the resource's lifetime.
func CreateOutput(t *tree.Tree, path string, dataType sample.DataType, units string) (*Resource, error) {
	return createTyped(t, path, tree.Output, dataType, units)
}

// CreateObservation creates (or returns the existing) Observation resource
// at path: a leaf with no app attached directly, fed by routing from
// another resource via SetSource, with its own filtering/buffering policy.
func CreateObservation(t *tree.Tree, path string) (*Resource, error) {
	res, err := create(t, path, tree.Observation)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreatePlaceholder creates a Placeholder entry: admin settings (default,
// override, observation policy) configured before any app has created the
// real resource at that path. When an app later creates the real resource,
// MoveAdminSettings transplants these settings onto it.
func CreatePlaceholder(t *tree.Tree, path string) (*Resource, error) {
	return create(t, path, tree.Placeholder)
}

// HasAdminSettings reports whether any admin-configured policy is present:
// a default, an override, or (for observations) a range/change/minPeriod
// filter or a non-zero buffer size. The buffer backup period is not
// counted.
func (r *Resource) HasAdminSettings() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasDefault || r.hasOverride || r.minPeriod > 0 || r.hasRange ||
		r.hasChangeBy || r.bufferMaxCount > 0
}

// MoveAdminSettings transplants every admin setting from src onto dst and
// clears src's, leaving src with no admin settings of its own. Matches
// res_MoveAdminSettings, used when an app creates the real resource at a
// path that already has a Placeholder holding admin configuration.
func MoveAdminSettings(src, dst *Resource) {
	src.mu.Lock()
	dst.mu.Lock()
	defer src.mu.Unlock()
	defer dst.mu.Unlock()

	dst.defaultValue, dst.defaultType, dst.hasDefault = src.defaultValue, src.defaultType, src.hasDefault
	dst.override, dst.overrideType, dst.hasOverride = src.override, src.overrideType, src.hasOverride
	dst.minPeriod = src.minPeriod
	dst.hasRange, dst.lowLimit, dst.highLimit = src.hasRange, src.lowLimit, src.highLimit
	dst.hasChangeBy, dst.changeBy = src.hasChangeBy, src.changeBy
	dst.bufferMaxCount = src.bufferMaxCount
	dst.bufferBackupPeriod = src.bufferBackupPeriod
	if src.buffer != nil {
		dst.buffer = src.buffer
	}

	src.defaultValue, src.hasDefault = nil, false
	src.override, src.hasOverride = nil, false
	src.minPeriod = 0
	src.hasRange = false
	src.hasChangeBy = false
	src.bufferMaxCount = 0
	src.bufferBackupPeriod = 0
	src.buffer = nil
}

// DeleteObservation removes an Observation resource entirely: detaches its
// source routing edge, marks the tree entry deleted, and releases any
// buffered samples. It accepts only Observations (herrors.ErrBadParameter
// otherwise); this package has no delete operation for Input/Output
// resources. Admin settings are not transplanted to a Placeholder (the
// caller is responsible for calling MoveAdminSettings beforehand if that's
// wanted).
func DeleteObservation(t *tree.Tree, res *Resource) error {
	if res.kind != tree.Observation {
		return herrors.ErrBadParameter
	}
	res.mu.Lock()
	if err := res.setSourceLocked(nil); err != nil {
		res.mu.Unlock()
		return err
	}
	if res.buffer != nil {
		res.buffer.releaseAll()
		res.buffer = nil
	}
	if res.hasCurrent {
		res.currentValue.Release()
		res.hasCurrent = false
	}
	res.mu.Unlock()
	t.MarkDeleted(res.entry)
	return nil
}
