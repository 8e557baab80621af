package apu

import "sync/atomic"

// Ring is a lock-free single-producer/single-consumer ring buffer of
// audio samples. The emulation thread (producer) calls Push from
// Step/generateSample; a host audio callback (consumer) calls Pop.
// Capacity is rounded up to the next power of two so index wrapping is
// a cheap mask instead of a modulo.
type Ring struct {
	data     []float32
	mask     uint32
	writeIdx uint32
	readIdx  uint32
}

// NewRing allocates a ring buffer holding at least minSize samples.
func NewRing(minSize int) *Ring {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Ring{data: make([]float32, size), mask: uint32(size - 1)}
}

// Push appends one sample, silently dropping it if the consumer hasn't
// kept up (spec favors never blocking the emulation thread over never
// dropping a sample).
func (r *Ring) Push(sample float32) {
	w := atomic.LoadUint32(&r.writeIdx)
	read := atomic.LoadUint32(&r.readIdx)
	if w-read >= uint32(len(r.data)) {
		return
	}
	r.data[w&r.mask] = sample
	atomic.StoreUint32(&r.writeIdx, w+1)
}

// Pop drains up to len(out) samples, returning the count actually
// written. A short read means underrun; ui/audio.go pads the remainder
// with silence and logs it.
func (r *Ring) Pop(out []float32) int {
	read := atomic.LoadUint32(&r.readIdx)
	w := atomic.LoadUint32(&r.writeIdx)
	available := w - read
	n := uint32(len(out))
	if available < n {
		n = available
	}
	for i := uint32(0); i < n; i++ {
		out[i] = r.data[(read+i)&r.mask]
	}
	atomic.StoreUint32(&r.readIdx, read+n)
	return int(n)
}

// Available reports how many unread samples are buffered.
func (r *Ring) Available() int {
	return int(atomic.LoadUint32(&r.writeIdx) - atomic.LoadUint32(&r.readIdx))
}
