package swarm

import (
	"iter"

	"github.com/plus3/swarm/gpu"
)

// InstanceBatchBuilder turns positions into the instance records of one frame.
// The returned batch shares the builder's buffer and is only valid until the
// next Build.
type InstanceBatchBuilder struct {
	capacity int
	buf      []gpu.InstanceRecord
	dropped  int
}

// NewInstanceBatchBuilder creates a builder that never returns more than
// capacity records.
func NewInstanceBatchBuilder(capacity int) *InstanceBatchBuilder {
	return &InstanceBatchBuilder{
		capacity: capacity,
		buf:      make([]gpu.InstanceRecord, 0, min(capacity, 1024)),
	}
}

// Capacity returns the maximum batch length.
func (b *InstanceBatchBuilder) Capacity() int {
	return b.capacity
}

// Build collects positions in iteration order. Positions past the capacity are
// counted in Dropped and left out.
func (b *InstanceBatchBuilder) Build(positions iter.Seq[*Position]) []gpu.InstanceRecord {
	b.buf = b.buf[:0]
	b.dropped = 0
	for p := range positions {
		if len(b.buf) == b.capacity {
			b.dropped++
			continue
		}
		b.buf = append(b.buf, gpu.InstanceRecord{Translate: p.V})
	}
	return b.buf
}

// Len returns the length of the last batch.
func (b *InstanceBatchBuilder) Len() int {
	return len(b.buf)
}

// Dropped returns how many positions the last Build left out.
func (b *InstanceBatchBuilder) Dropped() int {
	return b.dropped
}
