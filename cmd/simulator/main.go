// Package main runs the beacon-chain simulator node: it wires the
// attestation pool and the block cache to a slot clock and keeps them
// maintained until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/beaconsim/beaconsim/beacon-chain/cache"
	"github.com/beaconsim/beaconsim/beacon-chain/operations/attestations"
	"github.com/beaconsim/beaconsim/consensus-types/containers"
	"github.com/beaconsim/beaconsim/shared/params"
	"github.com/beaconsim/beaconsim/sim/clock"
	"github.com/beaconsim/beaconsim/sim/node"
)

var (
	secondsPerSlotFlag = &cli.Uint64Flag{
		Name:  "seconds-per-slot",
		Usage: "Duration of a slot in seconds",
		Value: params.MainnetConfig().SecondsPerSlot,
	}
	slotsPerEpochFlag = &cli.Uint64Flag{
		Name:  "slots-per-epoch",
		Usage: "Number of slots per epoch",
		Value: params.MainnetConfig().SlotsPerEpoch,
	}
	keepSlotsFlag = &cli.Uint64Flag{
		Name:  "keep-attestation-slots",
		Usage: "Retention window of the attestation cache, in slots",
		Value: params.MainnetConfig().KeepAttestationSlots,
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error)",
		Value: "info",
	}
	minimalConfigFlag = &cli.BoolFlag{
		Name:  "minimal-config",
		Usage: "Use the minimal simulation configuration",
	}
)

func main() {
	app := &cli.App{
		Name:   "simulator",
		Usage:  "beacon chain simulation node",
		Flags:  []cli.Flag{secondsPerSlotFlag, slotsPerEpochFlag, keepSlotsFlag, verbosityFlag, minimalConfigFlag},
		Before: setup,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func setup(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "could not parse verbosity")
	}
	log.SetLevel(level)
	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := params.MainnetConfig()
	if ctx.Bool(minimalConfigFlag.Name) {
		cfg = params.MinimalConfig()
	}
	if ctx.IsSet(secondsPerSlotFlag.Name) {
		cfg.SecondsPerSlot = ctx.Uint64(secondsPerSlotFlag.Name)
	}
	if ctx.IsSet(slotsPerEpochFlag.Name) {
		cfg.SlotsPerEpoch = ctx.Uint64(slotsPerEpochFlag.Name)
	}
	if ctx.IsSet(keepSlotsFlag.Name) {
		cfg.KeepAttestationSlots = ctx.Uint64(keepSlotsFlag.Name)
	}
	cfg.GenesisTime = uint64(time.Now().Unix())
	params.OverrideSimConfig(cfg)
	return nil
}

func run(cliCtx *cli.Context) error {
	genesis := &containers.BeaconBlock{Slot: 0, Body: &containers.BeaconBlockBody{}}
	blocks, err := cache.NewBlockCache(genesis)
	if err != nil {
		return err
	}
	genesisRoot, err := genesis.HashTreeRoot()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	svc, err := node.NewService(ctx, &node.Config{
		AttPool: attestations.NewPool(),
		Blocks:  blocks,
		Clock:   clock.New(),
		Store:   node.NewMemoryStore(genesisRoot),
	})
	if err != nil {
		return err
	}
	svc.Start()
	log.WithField("genesisRoot", fmt.Sprintf("%#x", genesisRoot)).Info("Simulator node started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("Shutting down")
	return svc.Stop()
}
