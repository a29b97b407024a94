// Package clock tracks simulated consensus time. A slot is derived from the
// configured genesis time and slot duration; the time source is injectable
// so simulations can run faster than wall time.
package clock

import (
	"context"
	"time"

	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/params"
)

// Clock converts between wall time and slots.
type Clock struct {
	genesisTime    time.Time
	secondsPerSlot uint64
	now            func() time.Time
}

// New creates a clock from the active simulation configuration.
func New() *Clock {
	cfg := params.SimConfig()
	return &Clock{
		genesisTime:    time.Unix(int64(cfg.GenesisTime), 0),
		secondsPerSlot: cfg.SecondsPerSlot,
		now:            time.Now,
	}
}

// NewWithNow creates a clock with a custom time source.
func NewWithNow(now func() time.Time) *Clock {
	c := New()
	c.now = now
	return c
}

// GenesisTime returns the time of slot 0.
func (c *Clock) GenesisTime() time.Time {
	return c.genesisTime
}

// CurrentSlot returns the slot at the current time. Before genesis the
// current slot is 0.
func (c *Clock) CurrentSlot() types.Slot {
	now := c.now()
	if now.Before(c.genesisTime) {
		return 0
	}
	elapsed := uint64(now.Sub(c.genesisTime).Seconds())
	return types.Slot(elapsed / c.secondsPerSlot)
}

// CurrentEpoch returns the epoch of the current slot.
func (c *Clock) CurrentEpoch() types.Epoch {
	return c.CurrentSlot().ToEpoch(params.SimConfig().SlotsPerEpoch)
}

// SlotStart returns the time at which the given slot begins.
func (c *Clock) SlotStart(slot types.Slot) time.Time {
	return c.genesisTime.Add(time.Duration(uint64(slot)*c.secondsPerSlot) * time.Second)
}

// SlotTicker emits each new slot as it begins until the context closes.
func (c *Clock) SlotTicker(ctx context.Context) <-chan types.Slot {
	ch := make(chan types.Slot, 1)
	go func() {
		defer close(ch)
		for {
			next := c.CurrentSlot() + 1
			timer := time.NewTimer(time.Until(c.SlotStart(next)))
			select {
			case <-timer.C:
				select {
				case ch <- next:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
	return ch
}
