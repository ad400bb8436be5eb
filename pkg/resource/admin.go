package resource

import "github.com/galpt/datahub/pkg/sample"

// SetUnits sets the resource's declared unit string (e.g. "celsius"). Units
// are metadata only: the Hub never converts between units, it just
// publishes what was declared so downstream consumers can interpret values
// consistently.
func (r *Resource) SetUnits(units string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = units
}

// GetUnits returns the resource's declared unit string.
func (r *Resource) GetUnits() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.units
}

// GetDataType returns the resource's current established DataType and
// whether it has one yet: the type of its current value, so false until a
// push is accepted, an override is set, or a default is applied as the
// fallback for a filtered push. An Input/Output's declared type is not
// reported before then.
func (r *Resource) GetDataType() (sample.DataType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentType, r.hasCurrent
}

// GetCurrentValue returns the resource's current value and its type. The
// returned sample carries an extra reference the caller must Release.
func (r *Resource) GetCurrentValue() (*sample.Sample, sample.DataType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasCurrent {
		return nil, 0, false
	}
	r.currentValue.AddRef()
	return r.currentValue, r.currentType, true
}

// SetDefault configures the fallback value used when the resource has never
// received an accepted push (see pipeline step 7 in push.go).
func (r *Resource) SetDefault(dataType sample.DataType, value *sample.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value.AddRef()
	if r.hasDefault {
		r.defaultValue.Release()
	}
	r.defaultType = dataType
	r.defaultValue = value
	r.hasDefault = true
}

// RemoveDefault clears any configured default.
func (r *Resource) RemoveDefault() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasDefault {
		r.defaultValue.Release()
	}
	r.defaultValue = nil
	r.hasDefault = false
}

// HasDefault reports whether a default is configured.
func (r *Resource) HasDefault() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasDefault
}

// GetDefaultValue returns the configured default and its type, with an
// extra reference the caller must Release.
func (r *Resource) GetDefaultValue() (*sample.Sample, sample.DataType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasDefault {
		return nil, 0, false
	}
	r.defaultValue.AddRef()
	return r.defaultValue, r.defaultType, true
}

// SetOverride forces the resource's current value, ignoring whatever is
// pushed, until RemoveOverride is called. Every subsequent Push still fires
// handlers and routing, but with the override's value substituted in (see
// pipeline step 6 in push.go).
func (r *Resource) SetOverride(dataType sample.DataType, value *sample.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value.AddRef()
	if r.hasOverride {
		r.override.Release()
	}
	r.overrideType = dataType
	r.override = value
	r.hasOverride = true
	r.setCurrentLocked(dataType, value, value.GetTimestamp())
}

// RemoveOverride clears an active override. The resource's current value is
// left as-is until the next Push.
func (r *Resource) RemoveOverride() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasOverride {
		r.override.Release()
	}
	r.override = nil
	r.hasOverride = false
}

// GetOverrideValue returns the configured override and its type, with an
// extra reference the caller must Release.
func (r *Resource) GetOverrideValue() (*sample.Sample, sample.DataType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasOverride {
		return nil, 0, false
	}
	r.override.AddRef()
	return r.override, r.overrideType, true
}

// IsOverridden reports whether an override is currently active.
func (r *Resource) IsOverridden() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasOverride
}

// SetMinPeriod configures the Observation minPeriod throttle (seconds
// between accepted pushes). 0 disables throttling.
func (r *Resource) SetMinPeriod(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minPeriod = seconds
}

// GetMinPeriod returns the configured minPeriod.
func (r *Resource) GetMinPeriod() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minPeriod
}

// SetRange configures the Observation range filter (values outside
// [low, high] are dropped).
func (r *Resource) SetRange(low, high float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasRange = true
	r.lowLimit = low
	r.highLimit = high
}

// RemoveRange clears the range filter.
func (r *Resource) RemoveRange() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasRange = false
}

// GetRange returns the configured [low, high] range, if any.
func (r *Resource) GetRange() (low, high float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lowLimit, r.highLimit, r.hasRange
}

// SetChangeBy configures the Observation change filter (values within
// changeBy of the current one are dropped).
func (r *Resource) SetChangeBy(changeBy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasChangeBy = true
	r.changeBy = changeBy
}

// RemoveChangeBy clears the change filter.
func (r *Resource) RemoveChangeBy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasChangeBy = false
}

// GetChangeBy returns the configured changeBy threshold, if any.
func (r *Resource) GetChangeBy() (changeBy float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changeBy, r.hasChangeBy
}
