package sample

import (
	"github.com/valyala/bytebufferpool"

	"github.com/galpt/datahub/pkg/hublog"
)

// Size tiers for the pooled string payloads a Sample can carry, taken from
// original_source/components/dataHub/dataSample.c. Each tier's capacity in
// bytes is half its parent's, same as the original's
// MED_STRING_POOL_SIZE/SMALL_STRING_POOL_SIZE derivation.
const (
	MaxStringBytes    = 1024 // HUB_MAX_STRING_BYTES equivalent
	MediumStringBytes = 300
	SmallStringBytes  = 50
)

const (
	largeStringPoolCount  = 5
	mediumStringPoolCount = (largeStringPoolCount * MaxStringBytes / 2) / MediumStringBytes
	smallStringPoolCount  = (mediumStringPoolCount * MediumStringBytes / 2) / SmallStringBytes
	samplePoolCount       = 1000
)

// boundedPool wraps a bytebufferpool.Pool with a fixed capacity of tokens.
// Exhausting it is fatal: the Data Hub is an embedded, statically-sized
// component and running out of pre-sized pool memory is a configuration
// error, not a runtime condition to recover from.
type boundedPool struct {
	tokens chan struct{}
	bbp    bytebufferpool.Pool
	name   string
}

func newBoundedPool(name string, capacity int) *boundedPool {
	p := &boundedPool{tokens: make(chan struct{}, capacity), name: name}
	for i := 0; i < capacity; i++ {
		p.tokens <- struct{}{}
	}
	return p
}

func (p *boundedPool) get() *bytebufferpool.ByteBuffer {
	select {
	case <-p.tokens:
	default:
		hublog.Logger.Fatal().Str("pool", p.name).Msg("data sample pool exhausted")
	}
	return p.bbp.Get()
}

func (p *boundedPool) put(b *bytebufferpool.ByteBuffer) {
	b.Reset()
	p.bbp.Put(b)
	p.tokens <- struct{}{}
}

func (p *boundedPool) capacity() int {
	return cap(p.tokens)
}

// tieredStringPool picks the smallest tier whose buffer capacity can hold a
// string of the requested length, mirroring the original's layered le_mem
// sub-pools (each tier shares the allocator but serves a different size
// class so small strings don't waste a large block).
type tieredStringPool struct {
	small  *boundedPool
	medium *boundedPool
	large  *boundedPool
}

var stringPool = newTieredStringPool()

func newTieredStringPool() *tieredStringPool {
	return &tieredStringPool{
		small:  newBoundedPool("string-small", smallStringPoolCount),
		medium: newBoundedPool("string-medium", mediumStringPoolCount),
		large:  newBoundedPool("string-large", largeStringPoolCount),
	}
}

func (t *tieredStringPool) acquire(needed int) (*bytebufferpool.ByteBuffer, *boundedPool) {
	var tier *boundedPool
	switch {
	case needed <= SmallStringBytes:
		tier = t.small
	case needed <= MediumStringBytes:
		tier = t.medium
	default:
		tier = t.large
	}
	return tier.get(), tier
}

// tokenPool is a pure capacity semaphore: no backing storage, just a count
// of live Sample slots. It models the original's fixed-size le_mem pool of
// dataSample_t structs, where Go's GC already manages the struct memory
// itself and only the "are we over budget" accounting needs reproducing.
type tokenPool struct {
	tokens chan struct{}
	name   string
}

func newTokenPool(name string, capacity int) *tokenPool {
	p := &tokenPool{tokens: make(chan struct{}, capacity), name: name}
	for i := 0; i < capacity; i++ {
		p.tokens <- struct{}{}
	}
	return p
}

func (p *tokenPool) acquire() {
	select {
	case <-p.tokens:
	default:
		hublog.Logger.Fatal().Str("pool", p.name).Msg("data sample pool exhausted")
	}
}

func (p *tokenPool) release() {
	p.tokens <- struct{}{}
}

var dataSamplePool = newTokenPool("sample", samplePoolCount)
