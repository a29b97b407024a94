package kv

import (
	"github.com/pkg/errors"

	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

// CachedAttestation pairs an attestation with the (slot, committee) key it
// is cached under.
type CachedAttestation struct {
	Slot           types.Slot
	CommitteeIndex types.CommitteeIndex
	Att            *containers.Attestation
}

// SaveAttestation stores an attestation under its slot and committee index.
// When fromBlock is true the attestation was extracted from an accepted
// block, and every participant position in its aggregation bits is also
// recorded as seen on-chain. Recording is an idempotent union.
//
// The attestation's internal consistency is the caller's responsibility;
// no validation happens here.
func (c *AttCache) SaveAttestation(att *containers.Attestation, fromBlock bool) {
	if att == nil || att.Data == nil {
		return
	}
	slot := att.Data.Slot
	committee := att.Data.CommitteeIndex

	byCommittee, ok := c.attestations[slot]
	if !ok {
		byCommittee = make(committeeAtts)
		c.attestations[slot] = byCommittee
	}
	byCommittee[committee] = append(byCommittee[committee], att)
	c.count++
	c.updateMetrics()

	if !fromBlock {
		return
	}
	seenByCommittee, ok := c.seenInBlock[slot]
	if !ok {
		seenByCommittee = make(seenPositions)
		c.seenInBlock[slot] = seenByCommittee
	}
	seen, ok := seenByCommittee[committee]
	if !ok {
		seen = make(map[types.ValidatorIndex]bool)
		seenByCommittee[committee] = seen
	}
	for _, index := range att.AttestingIndices() {
		seen[index] = true
	}
}

// Attestations returns every cached attestation at slots up to and
// including maxSlot, unfiltered, together with its cache key. Iteration
// order over slots and committees is unspecified.
func (c *AttCache) Attestations(maxSlot types.Slot) []CachedAttestation {
	cached := make([]CachedAttestation, 0, c.count)
	for slot, byCommittee := range c.attestations {
		if slot > maxSlot {
			continue
		}
		for committee, atts := range byCommittee {
			for _, att := range atts {
				cached = append(cached, CachedAttestation{
					Slot:           slot,
					CommitteeIndex: committee,
					Att:            att,
				})
			}
		}
	}
	return cached
}

// DeleteAttestation removes one occurrence of the given attestation from
// the (slot, committee) sequence. Removal is by content equality, not
// identity. It returns ErrNotFound when the slot or committee was never
// cached, or when no stored attestation matches.
func (c *AttCache) DeleteAttestation(slot types.Slot, committee types.CommitteeIndex, att *containers.Attestation) error {
	byCommittee, ok := c.attestations[slot]
	if !ok {
		return errors.Wrapf(ErrNotFound, "no attestations cached for slot %d", slot)
	}
	atts, ok := byCommittee[committee]
	if !ok {
		return errors.Wrapf(ErrNotFound, "no attestations cached for committee %d at slot %d", committee, slot)
	}
	for i, a := range atts {
		if a.Equal(att) {
			byCommittee[committee] = append(atts[:i:i], atts[i+1:]...)
			c.count--
			c.updateMetrics()
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "attestation not cached for committee %d at slot %d", committee, slot)
}
