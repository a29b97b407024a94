// Package containers defines the SSZ containers exchanged between the
// simulated validators: attestations and beacon blocks.
package containers

import (
	ssz "github.com/ferranbt/fastssz"

	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

// Beacon blocks hold at most this many attestations.
const maxAttestationsPerBlock = 128

// BeaconBlockBody carries the operations included in a block. The simulator
// only tracks attestations; the remaining operation lists of the full
// protocol are outside its scope.
type BeaconBlockBody struct {
	Attestations []*Attestation `ssz-max:"128"`
}

// BeaconBlock is a candidate block. ParentRoot references the ancestor, it
// does not own it. The block's own root is derived via HashTreeRoot and is
// deliberately not stored on the struct.
type BeaconBlock struct {
	Slot          types.Slot
	ProposerIndex types.ValidatorIndex
	ParentRoot    [32]byte `ssz-size:"32"`
	StateRoot     [32]byte `ssz-size:"32"`
	Body          *BeaconBlockBody
}

// SignedBeaconBlock is a container for a block and the proposer's signature.
type SignedBeaconBlock struct {
	Block     *BeaconBlock
	Signature [96]byte `ssz-size:"96"`
}

// HashTreeRoot ssz hashes the BeaconBlockBody object.
func (b *BeaconBlockBody) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockBody object with a hasher.
func (b *BeaconBlockBody) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	{
		subIndx := hh.Index()
		num := uint64(len(b.Attestations))
		if num > maxAttestationsPerBlock {
			return ssz.ErrIncorrectListSize
		}
		for _, elem := range b.Attestations {
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, maxAttestationsPerBlock)
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlock object.
func (b *BeaconBlock) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlock object with a hasher.
func (b *BeaconBlock) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.ProposerIndex))
	hh.PutBytes(b.ParentRoot[:])
	hh.PutBytes(b.StateRoot[:])
	if b.Body == nil {
		b.Body = new(BeaconBlockBody)
	}
	if err := b.Body.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedBeaconBlock object.
func (s *SignedBeaconBlock) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlock object with a hasher.
func (s *SignedBeaconBlock) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	if s.Block == nil {
		s.Block = new(BeaconBlock)
	}
	if err := s.Block.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutBytes(s.Signature[:])
	hh.Merkleize(indx)
	return nil
}
