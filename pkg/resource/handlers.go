package resource

import (
	"github.com/google/uuid"

	"github.com/galpt/datahub/pkg/herrors"
	"github.com/galpt/datahub/pkg/sample"
)

// coercible reports whether a value of dataType from can be represented as
// wantType without loss of meaning: BOOLEAN<->NUMERIC, NUMERIC -> STRING,
// and anything -> STRING/JSON (a textual rendering always exists).
func coercible(from, want sample.DataType) bool {
	if from == want {
		return true
	}
	switch want {
	case sample.Boolean:
		return from == sample.Numeric
	case sample.Numeric:
		return from == sample.Boolean
	case sample.String, sample.JSON:
		return true
	default:
		return false
	}
}

func coerce(value *sample.Sample, from, want sample.DataType) (coerced *sample.Sample, release bool) {
	if from == want {
		return value, false
	}
	switch want {
	case sample.Boolean:
		return sample.CreateBool(value.GetTimestamp(), value.GetNumeric() != 0), true
	case sample.Numeric:
		n := 0.0
		if value.GetBool() {
			n = 1
		}
		return sample.CreateNumeric(value.GetTimestamp(), n), true
	case sample.String:
		return sample.CreateString(value.GetTimestamp(), sample.AsString(value, from)), true
	case sample.JSON:
		return sample.CreateJSON(value.GetTimestamp(), sample.AsJSON(value, from)), true
	default:
		return value, false
	}
}

// AddPushHandler registers fn to be called, synchronously and inline with
// Push, every time this resource accepts a value. wantType is the DataType
// fn should receive; if it differs from the resource's current type but is
// coercible (see coercible), values are converted before fn is called. If
// the resource already has a current value whose type is not coercible to
// wantType, AddPushHandler fails with herrors.ErrUnsupported; values of a
// non-coercible type accepted later are not passed to fn.
func (r *Resource) AddPushHandler(wantType sample.DataType, fn PushHandlerFunc) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasCurrent && !coercible(r.currentType, wantType) {
		return uuid.Nil, herrors.ErrUnsupported
	}
	id := uuid.New()
	r.pushHandlers[id] = pushHandlerEntry{wantType: wantType, fn: fn}
	return id, nil
}

// RemovePushHandler unregisters a handler previously returned by
// AddPushHandler. Removing an unknown handle is a no-op.
func (r *Resource) RemovePushHandler(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pushHandlers, id)
}

func (r *Resource) fireHandlersLocked(value *sample.Sample, dataType sample.DataType) {
	for _, h := range r.pushHandlers {
		if !coercible(dataType, h.wantType) {
			continue
		}
		coerced, shouldRelease := coerce(value, dataType, h.wantType)
		h.fn(coerced, h.wantType)
		if shouldRelease {
			coerced.Release()
		}
	}
}
