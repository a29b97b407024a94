package node

import "github.com/beaconsim/beaconsim/beacon-chain/cache"

// BlockStore is the replay target consumed by the driver: block membership
// for ancestor-chain reconstruction, plus a way to mark blocks as replayed.
type BlockStore interface {
	cache.KnownBlocker
	MarkKnown(root [32]byte)
}

// MemoryStore is a minimal external block store for simulation runs. It
// only answers membership queries; the actual state replay lives outside
// the simulator.
type MemoryStore struct {
	known map[[32]byte]bool
}

// NewMemoryStore creates a store seeded with the given roots.
func NewMemoryStore(roots ...[32]byte) *MemoryStore {
	known := make(map[[32]byte]bool, len(roots))
	for _, root := range roots {
		known[root] = true
	}
	return &MemoryStore{known: known}
}

// MarkKnown records a root as replayed into the store.
func (s *MemoryStore) MarkKnown(root [32]byte) {
	s.known[root] = true
}

// HasBlock reports whether the store already recognizes the root.
func (s *MemoryStore) HasBlock(root [32]byte) bool {
	return s.known[root]
}
