package ecs

import "fmt"

// EntityId packs the archetype id in the upper 32 bits and the index inside
// the archetype in the lower 32. Entities are never destroyed, so an id stays
// valid for the lifetime of its Storage.
type EntityId uint64

func NewEntityId(archetypeId uint32, index uint32) EntityId {
	return EntityId(uint64(archetypeId)<<32 | uint64(index))
}

func (e EntityId) ArchetypeId() uint32 {
	return uint32(e >> 32)
}

func (e EntityId) Index() uint32 {
	return uint32(e)
}

func (e EntityId) String() string {
	return fmt.Sprintf("%d:%d", e.ArchetypeId(), e.Index())
}
