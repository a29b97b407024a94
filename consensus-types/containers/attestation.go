package containers

import (
	"bytes"

	ssz "github.com/ferranbt/fastssz"
	"github.com/prysmaticlabs/go-bitfield"

	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/params"
)

// AttestationData is the vote payload shared by every validator in a
// committee attesting at the same slot.
type AttestationData struct {
	Slot            types.Slot
	CommitteeIndex  types.CommitteeIndex
	BeaconBlockRoot [32]byte
}

// Attestation is a committee's aggregated vote. AggregationBits marks which
// committee positions participated. Attestations are treated as immutable
// once created.
type Attestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	Signature       [96]byte
}

// AttestingIndices returns the committee-relative positions set in the
// attestation's aggregation bits, in ascending order.
func (a *Attestation) AttestingIndices() []types.ValidatorIndex {
	bits := a.AggregationBits.BitIndices()
	indices := make([]types.ValidatorIndex, len(bits))
	for i, b := range bits {
		indices[i] = types.ValidatorIndex(b)
	}
	return indices
}

// ParticipantCount returns the number of set bits in the aggregation bits.
func (a *Attestation) ParticipantCount() uint64 {
	return a.AggregationBits.Count()
}

// Equal reports whether two attestations carry the same content. Used for
// value-based cache removal.
func (a *Attestation) Equal(other *Attestation) bool {
	if other == nil {
		return false
	}
	if !bytes.Equal(a.AggregationBits, other.AggregationBits) {
		return false
	}
	if a.Signature != other.Signature {
		return false
	}
	if a.Data == nil || other.Data == nil {
		return a.Data == other.Data
	}
	return *a.Data == *other.Data
}

// HashTreeRoot ssz hashes the AttestationData object.
func (a *AttestationData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttestationData object with a hasher.
func (a *AttestationData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(a.Slot))
	hh.PutUint64(uint64(a.CommitteeIndex))
	hh.PutBytes(a.BeaconBlockRoot[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Attestation object.
func (a *Attestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the Attestation object with a hasher.
func (a *Attestation) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBitlist(a.AggregationBits, params.SimConfig().MaxValidatorsPerCommittee)
	if a.Data == nil {
		a.Data = new(AttestationData)
	}
	if err := a.Data.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(a.Signature[:])
	hh.Merkleize(indx)
	return nil
}
