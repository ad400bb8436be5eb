package sample

import (
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Sample is an immutable, time-stamped value of one of the five DataType
// variants. Once created its payload never changes; callers that need a
// different value create a new Sample and release the old one.
//
// Samples are reference counted rather than left to the garbage collector,
// matching the original's le_mem-based pooling: AddRef/Release pairs let a
// Sample be shared between a resource's current-value slot, its observation
// buffer ring, and any in-flight snapshot pass without copying the payload,
// while still returning pooled storage promptly instead of waiting on a GC
// cycle.
type Sample struct {
	timestamp float64
	boolean   bool
	numeric   float64

	text     *bytebufferpool.ByteBuffer
	textTier *boundedPool

	refCount int32
}

func resolveTimestamp(ts float64) float64 {
	if ts == Now {
		return float64(time.Now().UnixNano()) / 1e9
	}
	return ts
}

func newSample(ts float64) *Sample {
	dataSamplePool.acquire()
	s := &Sample{timestamp: resolveTimestamp(ts), refCount: 1}
	return s
}

// CreateTrigger makes a TRIGGER sample, which carries no payload.
func CreateTrigger(ts float64) *Sample {
	return newSample(ts)
}

// CreateBool makes a BOOLEAN sample.
func CreateBool(ts float64, v bool) *Sample {
	s := newSample(ts)
	s.boolean = v
	return s
}

// CreateNumeric makes a NUMERIC sample.
func CreateNumeric(ts float64, v float64) *Sample {
	s := newSample(ts)
	s.numeric = v
	return s
}

// CreateString makes a STRING sample. The payload is copied into pooled
// storage sized to the smallest tier that fits it.
func CreateString(ts float64, v string) *Sample {
	s := newSample(ts)
	buf, tier := stringPool.acquire(len(v))
	buf.WriteString(v)
	s.text = buf
	s.textTier = tier
	return s
}

// CreateJSON makes a JSON sample. The payload is stored exactly as given
// (already-valid JSON text), using the same pooled storage as STRING.
func CreateJSON(ts float64, v string) *Sample {
	s := CreateString(ts, v)
	return s
}

// AddRef increments the sample's reference count. Call once per additional
// owner (e.g. when placing it in an observation buffer slot alongside the
// current-value slot that already holds a reference).
func (s *Sample) AddRef() {
	atomic.AddInt32(&s.refCount, 1)
}

// Release decrements the reference count and, once it reaches zero, returns
// the sample's pooled storage (string payload and sample-slot token) to
// their pools. Calling Release more times than AddRef+create is a caller bug.
func (s *Sample) Release() {
	if atomic.AddInt32(&s.refCount, -1) > 0 {
		return
	}
	if s.text != nil {
		s.textTier.put(s.text)
		s.text = nil
		s.textTier = nil
	}
	dataSamplePool.release()
}

// GetTimestamp returns the sample's timestamp, seconds since the Unix epoch.
func (s *Sample) GetTimestamp() float64 {
	return s.timestamp
}

// SetTimestamp overwrites the sample's timestamp in place. This is the one
// mutation allowed on an otherwise-immutable Sample, matching
// dataSample_SetTimestamp. Nothing else in this module calls it; the
// resource policy pipeline never rewrites a sample's timestamp.
func (s *Sample) SetTimestamp(ts float64) {
	s.timestamp = resolveTimestamp(ts)
}

// GetBool returns the BOOLEAN payload. Calling it on a sample of another
// type returns the zero value; callers are expected to already know the
// sample's type from its owning resource.
func (s *Sample) GetBool() bool {
	return s.boolean
}

// GetNumeric returns the NUMERIC payload.
func (s *Sample) GetNumeric() float64 {
	return s.numeric
}

// GetString returns the STRING or JSON payload.
func (s *Sample) GetString() string {
	if s.text == nil {
		return ""
	}
	return string(s.text.B)
}

// Copy creates a new, independently owned Sample with the same dataType and
// payload as original, for a value that needs an owner independent of the
// original's reference count. The resource policy pipeline does not copy:
// a default applied as the current value shares the default's reference.
func Copy(dataType DataType, original *Sample) *Sample {
	switch dataType {
	case Trigger:
		return CreateTrigger(original.timestamp)
	case Boolean:
		s := CreateBool(original.timestamp, original.boolean)
		return s
	case Numeric:
		return CreateNumeric(original.timestamp, original.numeric)
	case String:
		return CreateString(original.timestamp, original.GetString())
	case JSON:
		return CreateJSON(original.timestamp, original.GetString())
	default:
		return CreateTrigger(original.timestamp)
	}
}
