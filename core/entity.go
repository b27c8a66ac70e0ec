package core

// Entity is an opaque handle to a simulation entity.
// The low 32 bits are a slot index into the world arena, the high 32 bits
// a generation counter. A handle whose generation no longer matches the
// slot's is stale and fails every lookup, so ids are never observably reused.
type Entity uint64

// NilEntity is the zero handle; it never refers to a live entity.
const NilEntity Entity = 0

// MakeEntity packs a slot index and generation into a handle.
func MakeEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the arena slot index of the handle.
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation returns the generation counter of the handle.
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}
