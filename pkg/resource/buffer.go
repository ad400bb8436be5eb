package resource

import (
	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/tree"
)

// ring is the observation buffer: a fixed-capacity FIFO that keeps the most
// recent bufferMaxCount accepted samples, overwriting the oldest once full,
// implemented as a head/count ring over a fixed-size slice.
type ring struct {
	samples []*sample.Sample
	head    int
	count   int
	cap     int
}

func newRing(capacity int) *ring {
	return &ring{samples: make([]*sample.Sample, capacity), cap: capacity}
}

func (rb *ring) push(s *sample.Sample) {
	if rb.cap == 0 {
		return
	}
	s.AddRef()
	idx := (rb.head + rb.count) % rb.cap
	if rb.count == rb.cap {
		if old := rb.samples[rb.head]; old != nil {
			old.Release()
		}
		rb.samples[idx] = s
		rb.head = (rb.head + 1) % rb.cap
	} else {
		rb.samples[idx] = s
		rb.count++
	}
}

// ordered returns the buffered samples oldest-first.
func (rb *ring) ordered() []*sample.Sample {
	out := make([]*sample.Sample, rb.count)
	for i := 0; i < rb.count; i++ {
		out[i] = rb.samples[(rb.head+i)%rb.cap]
	}
	return out
}

func (rb *ring) releaseAll() {
	for i := 0; i < rb.count; i++ {
		idx := (rb.head + i) % rb.cap
		if rb.samples[idx] != nil {
			rb.samples[idx].Release()
		}
	}
	rb.count = 0
}

func (r *Resource) bufferPushLocked(value *sample.Sample, ts float64) {
	if r.kind != tree.Observation || r.bufferMaxCount <= 0 {
		return
	}
	if r.buffer == nil || r.buffer.cap != r.bufferMaxCount {
		r.buffer = newRing(r.bufferMaxCount)
	}
	r.buffer.push(value)
}

// BufferedSamples returns a snapshot of the observation buffer, oldest
// first, each with an extra reference the caller must Release when done.
func (r *Resource) BufferedSamples() []*sample.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buffer == nil {
		return nil
	}
	out := r.buffer.ordered()
	for _, s := range out {
		s.AddRef()
	}
	return out
}

// SetBufferMaxCount configures the observation buffer's capacity. Setting it
// to 0 disables buffering and releases any samples currently held.
func (r *Resource) SetBufferMaxCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufferMaxCount = n
	if n <= 0 && r.buffer != nil {
		r.buffer.releaseAll()
		r.buffer = nil
	}
}

// GetBufferMaxCount returns the configured observation buffer capacity.
func (r *Resource) GetBufferMaxCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bufferMaxCount
}

// SetBufferBackupPeriod configures how often (seconds) the buffer should be
// persisted via BufferBackupRecord. Persistence itself is out of scope; this
// is metadata only (see BufferBackupRecord's doc comment).
func (r *Resource) SetBufferBackupPeriod(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufferBackupPeriod = seconds
}

// GetBufferBackupPeriod returns the configured backup period.
func (r *Resource) GetBufferBackupPeriod() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bufferBackupPeriod
}
