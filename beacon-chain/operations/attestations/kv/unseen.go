package kv

import (
	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

// UnseenAttestations returns the cached attestations at (slot, committee)
// that still contribute at least one committee position not yet seen
// on-chain. The filter walks attestations in insertion order with a running
// seen set seeded from the seen-in-block positions: an attestation is kept
// when any of its positions is new, and then all of its positions are added
// to the running set. This is a greedy single-pass filter, not a minimum
// set cover; it over-approximates usefulness on purpose.
//
// An unknown slot or committee yields an empty result, not an error.
func (c *AttCache) UnseenAttestations(slot types.Slot, committee types.CommitteeIndex) []*containers.Attestation {
	var atts []*containers.Attestation
	if byCommittee, ok := c.attestations[slot]; ok {
		atts = byCommittee[committee]
	}

	seen := make(map[types.ValidatorIndex]bool)
	if seenByCommittee, ok := c.seenInBlock[slot]; ok {
		for index := range seenByCommittee[committee] {
			seen[index] = true
		}
	}

	unseen := make([]*containers.Attestation, 0, len(atts))
	for _, att := range atts {
		include := false
		for _, index := range att.AttestingIndices() {
			if !seen[index] {
				include = true
			}
			seen[index] = true
		}
		if include {
			unseen = append(unseen, att)
		}
	}
	return unseen
}

// AllUnseenAttestations runs the unseen-validator filter over every
// (slot, committee) pair cached at slots up to and including maxSlot.
// Slot and committee iteration order is the map order, i.e. unspecified.
func (c *AttCache) AllUnseenAttestations(maxSlot types.Slot) []*containers.Attestation {
	unseen := make([]*containers.Attestation, 0)
	for slot, byCommittee := range c.attestations {
		if slot > maxSlot {
			continue
		}
		for committee := range byCommittee {
			unseen = append(unseen, c.UnseenAttestations(slot, committee)...)
		}
	}
	return unseen
}
