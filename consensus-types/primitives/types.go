// Package primitives defines the scalar consensus types used across the
// simulator: slots, epochs, committee and validator indices. They are typed
// uint64s so that the compiler keeps the different index spaces apart.
package primitives

// Epoch represents a single epoch.
type Epoch uint64

// CommitteeIndex identifies a committee within a slot.
type CommitteeIndex uint64

// ValidatorIndex identifies a validator in the registry. Inside an
// attestation's aggregation bits, positions are committee-relative and are
// also carried as ValidatorIndex.
type ValidatorIndex uint64
