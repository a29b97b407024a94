// Package validator holds the simulated validator identity and its duty
// bookkeeping. Keys are deterministic placeholders; real BLS signing is out
// of the simulator's scope.
package validator

import (
	"encoding/binary"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/hashutil"
)

// DutyType distinguishes the duties a validator performs in a slot.
type DutyType string

const (
	// DutyPropose marks a block proposal.
	DutyPropose DutyType = "propose"
	// DutyAttest marks an attestation.
	DutyAttest DutyType = "attest"
)

// Duty records one duty performed at a slot, with the simulation time at
// which it happened.
type Duty struct {
	Time time.Duration
	Slot types.Slot
	Type DutyType
}

// defaultStateStoreSize bounds the memoized state advances each validator
// holds.
const defaultStateStoreSize = 64

// Validator is a simulated validator. Each validator owns its state store;
// nothing is shared between instances.
type Validator struct {
	Index        types.ValidatorIndex
	Pubkey       [48]byte
	StartBalance uint64
	States       *StateStore

	duties []Duty
}

// New creates a validator with a deterministic placeholder pubkey derived
// from its index.
func New(index types.ValidatorIndex, startBalance uint64) *Validator {
	var pubkey [48]byte
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(index))
	h := hashutil.Hash(seed[:])
	copy(pubkey[:], h[:])
	states, err := NewStateStore(defaultStateStoreSize)
	if err != nil {
		// Only possible with a non-positive size.
		panic(err)
	}
	return &Validator{
		Index:        index,
		Pubkey:       pubkey,
		StartBalance: startBalance,
		States:       states,
	}
}

// RecordDuty appends a performed duty to the validator's log.
func (v *Validator) RecordDuty(simTime time.Duration, slot types.Slot, dutyType DutyType) {
	v.duties = append(v.duties, Duty{Time: simTime, Slot: slot, Type: dutyType})
}

// Duties returns the duties recorded so far, in execution order.
func (v *Validator) Duties() []Duty {
	return v.duties
}

// stateKey addresses a post-state produced by advancing the state with root
// `Root` to slot `Slot`.
type stateKey struct {
	Root [32]byte
	Slot types.Slot
}

// StateStore memoizes the results of expensive state advances, keyed by
// (state root, target slot). Each store is owned by the validator holding
// it; nothing is shared between validator instances.
type StateStore struct {
	cache *lru.Cache
}

// NewStateStore creates a state store bounded to size entries.
func NewStateStore(size int) (*StateStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "could not create state store")
	}
	return &StateStore{cache: c}, nil
}

// Get returns the memoized state for (root, slot), if any.
func (s *StateStore) Get(root [32]byte, slot types.Slot) (interface{}, bool) {
	return s.cache.Get(stateKey{Root: root, Slot: slot})
}

// Put memoizes a state under (root, slot).
func (s *StateStore) Put(root [32]byte, slot types.Slot, state interface{}) {
	s.cache.Add(stateKey{Root: root, Slot: slot}, state)
}
