package kv

import (
	"sort"

	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

// Cleanup drops every cached slot older than the retention window and then
// prunes redundant attestations from all remaining slots. Slots strictly
// below slot-keepSlots are removed from both the attestation map and the
// seen-in-block map. When slot <= keepSlots the trim is skipped so the
// unsigned bound cannot underflow; pruning still runs.
func (c *AttCache) Cleanup(slot types.Slot, keepSlots uint64) {
	c.pruneBefore(slot, keepSlots)
	c.PruneRedundant()
}

func (c *AttCache) pruneBefore(slot types.Slot, keepSlots uint64) {
	if uint64(slot) <= keepSlots {
		return
	}
	lowerBound := slot.Sub(keepSlots)
	for cachedSlot, byCommittee := range c.attestations {
		if cachedSlot < lowerBound {
			for _, atts := range byCommittee {
				c.count -= len(atts)
				attCachePruned.Add(float64(len(atts)))
			}
			delete(c.attestations, cachedSlot)
		}
	}
	for cachedSlot := range c.seenInBlock {
		if cachedSlot < lowerBound {
			delete(c.seenInBlock, cachedSlot)
		}
	}
	c.updateMetrics()
}

// PruneRedundant rewrites every (slot, committee) attestation list with a
// greedy cover: attestations are sorted by descending participant count
// (stable, so ties keep their original order) and kept only when they add
// at least one position not covered by the attestations kept before them.
// The union of participant positions is preserved exactly.
func (c *AttCache) PruneRedundant() {
	for _, byCommittee := range c.attestations {
		for committee, atts := range byCommittee {
			sort.SliceStable(atts, func(i, j int) bool {
				return atts[i].ParticipantCount() > atts[j].ParticipantCount()
			})
			covered := make(map[types.ValidatorIndex]bool)
			keep := make([]*containers.Attestation, 0, len(atts))
			for _, att := range atts {
				contributes := false
				for _, index := range att.AttestingIndices() {
					if !covered[index] {
						contributes = true
						break
					}
				}
				if !contributes {
					continue
				}
				for _, index := range att.AttestingIndices() {
					covered[index] = true
				}
				keep = append(keep, att)
			}
			c.count -= len(atts) - len(keep)
			attCachePruned.Add(float64(len(atts) - len(keep)))
			byCommittee[committee] = keep
		}
	}
	c.updateMetrics()
}
