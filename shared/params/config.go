// Package params defines the configurable values for the simulated beacon
// chain, with a singleton accessor mirroring how node services read their
// chain configuration.
package params

// SimulationConfig contains the constants the simulator and its caches
// depend on. Values are configurable per run; defaults follow mainnet.
type SimulationConfig struct {
	// Time parameters.
	SecondsPerSlot uint64 // Duration of a slot in seconds.
	SlotsPerEpoch  uint64 // Number of slots per epoch.
	GenesisTime    uint64 // Unix timestamp of slot 0.

	// Committee parameters.
	MaxCommitteesPerSlot      uint64 // Upper bound of committees in a single slot.
	TargetCommitteeSize       uint64 // Number of validators aimed for per committee.
	MaxValidatorsPerCommittee uint64 // Length of an attestation's aggregation bitlist.

	// Cache retention.
	KeepAttestationSlots uint64 // Cleanup retention window for the attestation cache.
}

var simulationConfig = MainnetConfig()

// SimConfig retrieves the currently active simulation configuration.
func SimConfig() *SimulationConfig {
	return simulationConfig
}

// OverrideSimConfig replaces the active configuration. Tests and the CLI
// entrypoint are the only intended callers.
func OverrideSimConfig(c *SimulationConfig) {
	simulationConfig = c
}

// MainnetConfig returns the configuration matching mainnet constants.
func MainnetConfig() *SimulationConfig {
	return &SimulationConfig{
		SecondsPerSlot:            12,
		SlotsPerEpoch:             32,
		GenesisTime:               1606824023,
		MaxCommitteesPerSlot:      64,
		TargetCommitteeSize:       128,
		MaxValidatorsPerCommittee: 2048,
		KeepAttestationSlots:      32,
	}
}

// MinimalConfig returns a small configuration suitable for fast simulation
// runs and unit tests.
func MinimalConfig() *SimulationConfig {
	return &SimulationConfig{
		SecondsPerSlot:            6,
		SlotsPerEpoch:             8,
		GenesisTime:               0,
		MaxCommitteesPerSlot:      4,
		TargetCommitteeSize:       4,
		MaxValidatorsPerCommittee: 32,
		KeepAttestationSlots:      8,
	}
}
