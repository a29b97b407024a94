// Package kv implements the attestation cache backing the attestation pool.
// Attestations are keyed by slot and committee index, together with the
// committee positions already seen inside accepted blocks.
//
// The cache is not safe for concurrent use; callers must serialize access
// to an instance.
package kv

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

var (
	// ErrNotFound is returned when deleting an attestation from a slot or
	// committee that was never cached, or one that is not in the cache.
	ErrNotFound = errors.New("attestation not found in cache")

	attCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_cache_size",
		Help: "The number of attestations held by the attestation cache.",
	})
	attCachePruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestation_cache_pruned_total",
		Help: "The total number of attestations dropped as redundant or expired.",
	})
)

// committeeAtts holds one slot's attestations grouped by committee.
type committeeAtts map[types.CommitteeIndex][]*containers.Attestation

// seenPositions records committee positions already included on-chain.
type seenPositions map[types.CommitteeIndex]map[types.ValidatorIndex]bool

// AttCache holds attestations by (slot, committee) and tracks which
// committee positions have already had their vote included in a block.
type AttCache struct {
	attestations map[types.Slot]committeeAtts
	seenInBlock  map[types.Slot]seenPositions
	count        int
}

// NewAttCache initializes an empty attestation cache. Every instance owns
// its maps; nothing is shared between instances.
func NewAttCache() *AttCache {
	return &AttCache{
		attestations: make(map[types.Slot]committeeAtts),
		seenInBlock:  make(map[types.Slot]seenPositions),
	}
}

// Count returns the number of attestations currently cached.
func (c *AttCache) Count() int {
	return c.count
}

func (c *AttCache) updateMetrics() {
	attCacheSize.Set(float64(c.count))
}
