package attestations

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/params"
)

// Service runs the attestation pool's periodic maintenance: once per slot
// the pool drops slots outside the retention window and prunes redundant
// attestations.
type Service struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   Pool
	clock  SlotSource
	err    error
}

// SlotSource supplies the current slot to schedule maintenance against.
type SlotSource interface {
	CurrentSlot() types.Slot
}

// Config options for the service.
type Config struct {
	Pool  Pool
	Clock SlotSource
}

// NewService instantiates an attestation pool service to be registered
// with a running simulator node.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		ctx:    ctx,
		cancel: cancel,
		pool:   cfg.Pool,
		clock:  cfg.Clock,
	}
}

// Start the pool maintenance loop.
func (s *Service) Start() {
	go s.cleanupRoutine()
}

// Stop the pool maintenance loop.
func (s *Service) Stop() error {
	defer s.cancel()
	return nil
}

// Status returns the current service error if there is any.
func (s *Service) Status() error {
	return s.err
}

func (s *Service) cleanupRoutine() {
	interval := time.Duration(params.SimConfig().SecondsPerSlot) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup(s.ctx)
		case <-s.ctx.Done():
			log.Debug("Context closed, exiting routine")
			return
		}
	}
}

func (s *Service) cleanup(ctx context.Context) {
	_, span := trace.StartSpan(ctx, "operations.attestations.cleanup")
	defer span.End()

	slot := s.clock.CurrentSlot()
	before := s.pool.Count()
	s.pool.Cleanup(slot, params.SimConfig().KeepAttestationSlots)
	log.WithFields(logrus.Fields{
		"slot":    slot,
		"dropped": before - s.pool.Count(),
	}).Debug("Cleaned up attestation pool")
}
