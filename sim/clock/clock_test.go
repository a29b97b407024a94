package clock

import (
	"testing"
	"time"

	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/params"
	"github.com/beaconsim/beaconsim/shared/testutil/assert"
)

func setupConfig(t *testing.T) *params.SimulationConfig {
	prev := params.SimConfig()
	t.Cleanup(func() { params.OverrideSimConfig(prev) })
	cfg := params.MinimalConfig()
	cfg.GenesisTime = 1_000_000
	cfg.SecondsPerSlot = 6
	params.OverrideSimConfig(cfg)
	return cfg
}

func TestClock_CurrentSlot(t *testing.T) {
	cfg := setupConfig(t)

	tests := []struct {
		name    string
		elapsed int64
		want    types.Slot
	}{
		{name: "at genesis", elapsed: 0, want: 0},
		{name: "mid slot zero", elapsed: 5, want: 0},
		{name: "slot boundary", elapsed: 6, want: 1},
		{name: "later slot", elapsed: 61, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(int64(cfg.GenesisTime)+tt.elapsed, 0)
			c := NewWithNow(func() time.Time { return now })
			assert.Equal(t, tt.want, c.CurrentSlot())
		})
	}
}

func TestClock_BeforeGenesis(t *testing.T) {
	cfg := setupConfig(t)
	now := time.Unix(int64(cfg.GenesisTime)-100, 0)
	c := NewWithNow(func() time.Time { return now })
	assert.Equal(t, types.Slot(0), c.CurrentSlot())
}

func TestClock_SlotStart(t *testing.T) {
	cfg := setupConfig(t)
	c := New()
	assert.Equal(t, time.Unix(int64(cfg.GenesisTime), 0), c.SlotStart(0))
	assert.Equal(t, time.Unix(int64(cfg.GenesisTime)+18, 0), c.SlotStart(3))
}

func TestClock_CurrentEpoch(t *testing.T) {
	cfg := setupConfig(t)
	// Minimal config has 8 slots per epoch; slot 17 is epoch 2.
	now := time.Unix(int64(cfg.GenesisTime)+17*6, 0)
	c := NewWithNow(func() time.Time { return now })
	assert.Equal(t, types.Epoch(2), c.CurrentEpoch())
}
