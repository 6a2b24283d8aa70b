package ecs

import (
	"sync"

	"github.com/kelindar/bitmap"
)

// membership is the membership index: one bitmap per entity slot recording which component types
// the slot holds. It is the authoritative record of whether an entity exists. A slot with an empty
// mask is a tombstone and may be handed out again.
//
// Unless stated otherwise, methods expect the caller to hold mu.
type membership struct {
	mu       sync.RWMutex
	masks    []bitmap.Bitmap // Slot -> component bits
	pending  bitmap.Bitmap   // Slots reserved by a create that hasn't published its bits yet
	occupied bitmap.Bitmap   // Slots with a non-empty mask or a pending create
}

func newMembership() membership {
	return membership{masks: make([]bitmap.Bitmap, 0)}
}

// len returns the number of slots ever allocated.
func (m *membership) len() int {
	return len(m.masks)
}

// inRange reports whether id refers to an allocated slot.
func (m *membership) inRange(id EntityID) bool {
	return int(id) < len(m.masks)
}

// free returns the lowest slot that is neither occupied nor reserved.
func (m *membership) free() (EntityID, bool) {
	id, ok := m.occupied.MinZero()
	if !ok || int(id) >= len(m.masks) {
		return 0, false
	}
	return EntityID(id), true
}

// allocate appends a new slot with an empty mask and returns it.
func (m *membership) allocate() EntityID {
	m.masks = append(m.masks, bitmap.Bitmap{})
	return EntityID(len(m.masks) - 1) //nolint:gosec // bounded by MaxEntityID check in the store
}

// reserve marks a slot as taken by an in-flight create.
func (m *membership) reserve(id EntityID) {
	m.pending.Set(uint32(id))
	m.occupied.Set(uint32(id))
}

// publish ORs the bits written by a create into the slot's mask and releases the reservation.
func (m *membership) publish(id EntityID, bits bitmap.Bitmap) {
	m.masks[id].Or(bits)
	m.pending.Remove(uint32(id))
	m.refresh(id)
}

// set marks a single component as present.
func (m *membership) set(id EntityID, cid componentID) {
	m.masks[id].Set(cid)
	m.refresh(id)
}

// unset marks a single component as absent. Returns false if it wasn't present.
func (m *membership) unset(id EntityID, cid componentID) bool {
	if !m.masks[id].Contains(cid) {
		return false
	}
	m.masks[id].Remove(cid)
	m.refresh(id)
	return true
}

// reset clears the slot's mask, turning it into a tombstone.
func (m *membership) reset(id EntityID) {
	m.masks[id].Clear()
	m.refresh(id)
}

// alive reports whether the slot carries at least one component.
func (m *membership) alive(id EntityID) bool {
	return m.inRange(id) && m.masks[id].Count() > 0
}

// refresh recomputes whether a slot is occupied after its mask or reservation changed.
func (m *membership) refresh(id EntityID) {
	if m.masks[id].Count() > 0 || m.pending.Contains(uint32(id)) {
		m.occupied.Set(uint32(id))
		return
	}
	m.occupied.Remove(uint32(id))
}

// contains reports whether the slot holds every component in ids. An empty ids matches any slot that
// has at least one component.
func (m *membership) contains(id EntityID, ids []componentID) bool {
	mask := m.masks[id]
	if len(ids) == 0 {
		return mask.Count() > 0
	}
	for _, cid := range ids {
		if !mask.Contains(cid) {
			return false
		}
	}
	return true
}
