package primitives

// Slot represents a single slot.
type Slot uint64

// Add returns slot + x.
func (s Slot) Add(x uint64) Slot {
	return s + Slot(x)
}

// Sub returns slot - x. It panics on underflow, mirroring unsigned
// arithmetic faults; callers guard with the comparison operators below.
func (s Slot) Sub(x uint64) Slot {
	if uint64(s) < x {
		panic("slot underflow")
	}
	return s - Slot(x)
}

// SubSlot returns slot - x where x is another slot.
func (s Slot) SubSlot(x Slot) Slot {
	return s.Sub(uint64(x))
}

// ToEpoch returns the epoch the slot belongs to, given slots per epoch.
func (s Slot) ToEpoch(slotsPerEpoch uint64) Epoch {
	return Epoch(uint64(s) / slotsPerEpoch)
}
