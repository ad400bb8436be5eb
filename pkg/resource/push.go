package resource

import (
	"math"

	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/tree"
)

// Push offers a new value to the resource. It runs the full policy pipeline
// in the fixed order taken from original_source's resource.h and cross
// checked against the type/unit/filter operations it declares: type
// acceptance, unit acceptance, range filter, change filter, minPeriod
// throttle, override substitution, default fallback. A value that is
// silently filtered out (type, units, range, change, minPeriod) is not an
// error: push is best-effort, so Push returns nil and simply leaves the
// current value (applying the default fallback if there has never been
// one, for the range/change/minPeriod steps).
func (r *Resource) Push(dataType sample.DataType, units string, ts float64, value *sample.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. type acceptance: Input/Output have a dataType fixed at creation;
	// Observation/Placeholder have none, so every type is accepted there.
	if (r.kind == tree.Input || r.kind == tree.Output) && dataType != r.declaredType {
		return nil
	}

	// 2. unit acceptance: an empty units string on either side matches any.
	if r.units != "" && units != "" && r.units != units {
		return nil
	}

	accepted := value
	acceptedType := dataType

	// 3. range filter (Observations only, NUMERIC only).
	if r.kind == tree.Observation && r.hasRange && dataType == sample.Numeric {
		v := accepted.GetNumeric()
		if v < r.lowLimit || v > r.highLimit {
			return r.applyDefaultFallbackLocked()
		}
	}

	// 4. change filter (Observations only, NUMERIC only): drop values too
	// close to the current one.
	if r.kind == tree.Observation && r.hasChangeBy && dataType == sample.Numeric && r.hasCurrent {
		delta := math.Abs(accepted.GetNumeric() - r.currentValue.GetNumeric())
		if delta < r.changeBy {
			return r.applyDefaultFallbackLocked()
		}
	}

	// 5. minPeriod throttle (Observations only): drop values that arrive too
	// soon after the last accepted one.
	if r.kind == tree.Observation && r.minPeriod > 0 && r.hasCurrent {
		if ts-r.lastPushTime < r.minPeriod {
			return r.applyDefaultFallbackLocked()
		}
	}

	// 6. override substitution: an active override always wins, replacing
	// whatever was pushed (but the push is still accepted: timestamp and
	// handlers still fire, just with the override's value).
	if r.hasOverride {
		accepted = r.override
		acceptedType = r.overrideType
	}

	r.setCurrentLocked(acceptedType, accepted, ts)
	r.bufferPushLocked(accepted, ts)
	r.fireHandlersLocked(accepted, acceptedType)
	r.routeToDestinationsLocked(acceptedType, r.units, ts, accepted)
	return nil
}

// applyDefaultFallbackLocked implements pipeline step 7: when a push is
// filtered out entirely and the resource has never had a current value, the
// configured default (if any) becomes the current value instead of leaving
// the resource empty.
func (r *Resource) applyDefaultFallbackLocked() error {
	if r.hasCurrent || !r.hasDefault {
		return nil
	}
	r.setCurrentLocked(r.defaultType, r.defaultValue, r.defaultValue.GetTimestamp())
	return nil
}

func (r *Resource) setCurrentLocked(dataType sample.DataType, value *sample.Sample, ts float64) {
	value.AddRef()
	if r.hasCurrent {
		r.currentValue.Release()
	}
	r.currentType = dataType
	r.currentValue = value
	r.hasCurrent = true
	r.lastPushTime = ts
	r.entry.Touch(ts)
}

func (r *Resource) routeToDestinationsLocked(dataType sample.DataType, units string, ts float64, value *sample.Sample) {
	for _, dst := range r.destinations {
		_ = dst.Push(dataType, units, ts, value)
	}
}
