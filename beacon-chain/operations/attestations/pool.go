// Package attestations defines the attestation pool used by the simulated
// validators. The pool deduplicates incoming votes and selects the subset
// worth including when a new block is built.
package attestations

import (
	"github.com/beaconsim/beaconsim/beacon-chain/operations/attestations/kv"
	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

// Pool defines the necessary methods for the attestation pool to serve
// block production and cache maintenance.
type Pool interface {
	SaveAttestation(att *containers.Attestation, fromBlock bool)
	Attestations(maxSlot types.Slot) []kv.CachedAttestation
	UnseenAttestations(slot types.Slot, committee types.CommitteeIndex) []*containers.Attestation
	AllUnseenAttestations(maxSlot types.Slot) []*containers.Attestation
	DeleteAttestation(slot types.Slot, committee types.CommitteeIndex, att *containers.Attestation) error
	Cleanup(slot types.Slot, keepSlots uint64)
	PruneRedundant()
	Count() int
}

// NewPool initializes a new attestation pool.
func NewPool() *kv.AttCache {
	return kv.NewAttCache()
}
