// Package node wires the simulator's caches together and drives them: it
// feeds observed attestations and blocks into the caches, selects candidate
// chains for replay, and schedules per-slot maintenance.
package node

import (
	"context"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	"github.com/beaconsim/beaconsim/beacon-chain/cache"
	"github.com/beaconsim/beaconsim/beacon-chain/operations/attestations"
	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/params"
	"github.com/beaconsim/beaconsim/sim/clock"
	"github.com/beaconsim/beaconsim/sim/validator"
)

var seenAttRootsSize = int64(1 << 16)

// Config options for the simulator node.
type Config struct {
	AttPool attestations.Pool
	Blocks  *cache.BlockCache
	Clock   *clock.Clock
	Store   BlockStore
}

// Service is the driver that owns both caches on behalf of a set of
// simulated validators.
type Service struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cfg        *Config
	attService *attestations.Service
	seenAtts   *ristretto.Cache
	dutyLog    *gocache.Cache
	err        error
}

// NewService instantiates the simulator node driver.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	seen, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: seenAttRootsSize,
		MaxCost:     seenAttRootsSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	epoch := time.Duration(params.SimConfig().SecondsPerSlot*params.SimConfig().SlotsPerEpoch) * time.Second
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		seenAtts: seen,
		dutyLog:  gocache.New(epoch, epoch),
	}
	s.attService = attestations.NewService(ctx, &attestations.Config{
		Pool:  cfg.AttPool,
		Clock: cfg.Clock,
	})
	return s, nil
}

// Start the node's slot loop and the pool maintenance service.
func (s *Service) Start() {
	s.attService.Start()
	go s.slotRoutine()
}

// Stop the node and its services.
func (s *Service) Stop() error {
	defer s.cancel()
	return s.attService.Stop()
}

// Status returns the current service error if there is any.
func (s *Service) Status() error {
	if s.err != nil {
		return s.err
	}
	return s.attService.Status()
}

// OnAttestation feeds an observed attestation into the attestation pool.
// fromBlock records whether the attestation was extracted from an accepted
// block rather than heard on the network. Attestations already processed
// with the same content are dropped.
func (s *Service) OnAttestation(ctx context.Context, att *containers.Attestation, fromBlock bool) error {
	_, span := trace.StartSpan(ctx, "sim.node.OnAttestation")
	defer span.End()

	root, err := att.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash attestation")
	}
	// Block provenance must always reach the pool so seen-in-block
	// positions are recorded even for content seen before.
	if !fromBlock {
		if _, seen := s.seenAtts.Get(string(root[:])); seen {
			return nil
		}
	}
	s.cfg.AttPool.SaveAttestation(att, fromBlock)
	s.seenAtts.Set(string(root[:]), true, 1)
	// Set is buffered; wait so an immediate duplicate observes it.
	s.seenAtts.Wait()
	return nil
}

// OnBlock feeds an observed block into the block cache and its attestations
// into the pool with block provenance.
func (s *Service) OnBlock(ctx context.Context, block *containers.SignedBeaconBlock) error {
	ctx, span := trace.StartSpan(ctx, "sim.node.OnBlock")
	defer span.End()

	if err := s.cfg.Blocks.InsertBlock(block); err != nil {
		return err
	}
	if block.Block.Body == nil {
		return nil
	}
	for _, att := range block.Block.Body.Attestations {
		if err := s.OnAttestation(ctx, att, true /* fromBlock */); err != nil {
			return err
		}
	}
	return nil
}

// AcceptBlocks forwards a fork-choice decision to the block cache.
func (s *Service) AcceptBlocks(blocks ...*containers.SignedBeaconBlock) error {
	return s.cfg.Blocks.AcceptBlocks(blocks...)
}

// CandidateChain returns the longest outstanding chain to hand to state
// replay.
func (s *Service) CandidateChain() []*containers.SignedBeaconBlock {
	return s.cfg.Blocks.LongestOutstandingChain(s.cfg.Store)
}

// ReplayChain replays the longest outstanding chain into the external store
// and accepts it: each block is marked replayed in the store and recorded as
// the canonical entry for its slot. The replayed chain is returned oldest
// first.
func (s *Service) ReplayChain(ctx context.Context) ([]*containers.SignedBeaconBlock, error) {
	_, span := trace.StartSpan(ctx, "sim.node.ReplayChain")
	defer span.End()

	chain := s.CandidateChain()
	for _, block := range chain {
		root, err := block.Block.HashTreeRoot()
		if err != nil {
			return nil, errors.Wrap(err, "could not hash block")
		}
		s.cfg.Store.MarkKnown(root)
	}
	if err := s.cfg.Blocks.AcceptBlocks(chain...); err != nil {
		return nil, err
	}
	return chain, nil
}

// PackableAttestations returns the deduplicated attestations worth
// including in a block proposed at the given slot.
func (s *Service) PackableAttestations(slot types.Slot) []*containers.Attestation {
	return s.cfg.AttPool.AllUnseenAttestations(slot)
}

// RecordDuty notes a performed duty in the expiring duty log and on the
// validator itself.
func (s *Service) RecordDuty(v *validator.Validator, slot types.Slot, dutyType validator.DutyType) {
	simTime := time.Since(s.cfg.Clock.GenesisTime())
	v.RecordDuty(simTime, slot, dutyType)
	s.dutyLog.SetDefault(dutyKey(v.Index, slot, dutyType), simTime)
	log.WithFields(logrus.Fields{
		"validator": v.Index,
		"slot":      slot,
		"duty":      dutyType,
	}).Debug("Recorded duty")
}

// RecentDuty reports whether the duty is still in the expiring log.
func (s *Service) RecentDuty(index types.ValidatorIndex, slot types.Slot, dutyType validator.DutyType) bool {
	_, ok := s.dutyLog.Get(dutyKey(index, slot, dutyType))
	return ok
}

func (s *Service) slotRoutine() {
	ticker := s.cfg.Clock.SlotTicker(s.ctx)
	for {
		select {
		case slot, ok := <-ticker:
			if !ok {
				return
			}
			log.WithFields(logrus.Fields{
				"slot":        slot,
				"pooled":      s.cfg.AttPool.Count(),
				"outstanding": len(s.cfg.Blocks.OutstandingRoots()),
			}).Info("Slot started")
		case <-s.ctx.Done():
			log.Debug("Context closed, exiting routine")
			return
		}
	}
}

func dutyKey(index types.ValidatorIndex, slot types.Slot, dutyType validator.DutyType) string {
	return string(dutyType) + "-" +
		strconv.FormatUint(uint64(index), 10) + "-" +
		strconv.FormatUint(uint64(slot), 10)
}
