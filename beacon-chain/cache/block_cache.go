// Package cache contains the block cache used by the simulator to track
// candidate blocks that are not yet part of the canonical chain.
package cache

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
)

var (
	blockCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "block_cache_size",
		Help: "The number of blocks held by the block cache.",
	})
	outstandingBlockCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "block_cache_outstanding_blocks",
		Help: "The number of known blocks not yet accepted into the canonical chain.",
	})
)

// zeroRoot marks a slot with no accepted block yet.
var zeroRoot [32]byte

// KnownBlocker is the external store consulted to bound ancestor chain
// reconstruction. The cache consumes it, it does not own it.
type KnownBlocker interface {
	HasBlock(root [32]byte) bool
}

// BlockCache tracks every block observed on the simulated network, which
// root is accepted at each slot, and the outstanding blocks still waiting
// for a fork-choice decision.
//
// The cache is not safe for concurrent use; callers must serialize access
// to an instance.
type BlockCache struct {
	blocks      map[[32]byte]*containers.SignedBeaconBlock
	accepted    [][32]byte
	outstanding map[[32]byte]bool
}

// NewBlockCache seeds a cache with the genesis block. Genesis is stored as
// a pseudo-signed block and pre-accepted at slot 0.
func NewBlockCache(genesis *containers.BeaconBlock) (*BlockCache, error) {
	genesisRoot, err := genesis.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not hash genesis block")
	}
	return &BlockCache{
		blocks: map[[32]byte]*containers.SignedBeaconBlock{
			genesisRoot: {Block: genesis},
		},
		accepted:    [][32]byte{genesisRoot},
		outstanding: make(map[[32]byte]bool),
	}, nil
}

// InsertBlock computes the block's root and stores it. See InsertBlockWithRoot.
func (c *BlockCache) InsertBlock(block *containers.SignedBeaconBlock) error {
	root, err := block.Block.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash block")
	}
	return c.InsertBlockWithRoot(block, root)
}

// InsertBlockWithRoot stores a block under the given root, overwriting any
// previous entry for that root. A block whose root is already accepted is
// stored and nothing else happens. Otherwise the accepted sequence grows to
// cover the block's slot; if that slot already holds a different accepted
// or outstanding root the insert fails with ErrConflictingBlock, modelling
// double-proposal detection rather than silent fork handling. On success
// the root joins the outstanding set.
func (c *BlockCache) InsertBlockWithRoot(block *containers.SignedBeaconBlock, root [32]byte) error {
	c.blocks[root] = block
	blockCacheSize.Set(float64(len(c.blocks)))

	if c.isAccepted(root) {
		return nil
	}

	slot := block.Block.Slot
	for uint64(len(c.accepted)) <= uint64(slot) {
		c.accepted = append(c.accepted, zeroRoot)
	}
	if current := c.accepted[slot]; current != zeroRoot && current != root {
		return errors.Wrapf(ErrConflictingBlock, "slot %d already accepted %#x", slot, current)
	}
	for outstandingRoot := range c.outstanding {
		other, ok := c.blocks[outstandingRoot]
		if ok && other.Block.Slot == slot && outstandingRoot != root {
			return errors.Wrapf(ErrConflictingBlock, "slot %d already has outstanding block %#x", slot, outstandingRoot)
		}
	}

	c.outstanding[root] = true
	outstandingBlockCount.Set(float64(len(c.outstanding)))
	return nil
}

// AcceptBlocks marks the given blocks as the accepted entries for their
// slots and removes them from the outstanding set. The caller is trusted to
// pass only fork-choice-approved blocks; no cross-check against previously
// accepted roots happens here.
func (c *BlockCache) AcceptBlocks(blocks ...*containers.SignedBeaconBlock) error {
	for _, block := range blocks {
		root, err := block.Block.HashTreeRoot()
		if err != nil {
			return errors.Wrap(err, "could not hash block")
		}
		slot := block.Block.Slot
		for uint64(len(c.accepted)) <= uint64(slot) {
			c.accepted = append(c.accepted, zeroRoot)
		}
		c.accepted[slot] = root
		delete(c.outstanding, root)
	}
	outstandingBlockCount.Set(float64(len(c.outstanding)))
	return nil
}

// ChainForBlock reconstructs the ancestor chain connecting the given block
// back to a block the external store already recognizes. The walk follows
// parent roots until it reaches a root known to the store or slot 0; the
// boundary block itself is excluded. A parent root absent from the cache
// fails the whole chain with ErrMissingAncestor, as does an ancestry that
// walks more steps than there are cached blocks, which only a parent-root
// cycle can produce. Blocks are returned oldest to newest, ready for
// sequential replay.
func (c *BlockCache) ChainForBlock(block *containers.SignedBeaconBlock, store KnownBlocker) ([]*containers.SignedBeaconBlock, error) {
	root, err := block.Block.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not hash block")
	}

	chain := make([]*containers.SignedBeaconBlock, 0)
	current, currentRoot := block, root
	for steps := 0; ; steps++ {
		if steps > len(c.blocks) {
			return nil, errors.Wrapf(ErrMissingAncestor, "ancestry of block %#x exceeds cached depth", root)
		}
		if store.HasBlock(currentRoot) {
			break
		}
		if current.Block.Slot == 0 {
			// Genesis is implicitly known everywhere.
			break
		}
		parentRoot := current.Block.ParentRoot
		parent, ok := c.blocks[parentRoot]
		if !ok {
			return nil, errors.Wrapf(ErrMissingAncestor, "parent %#x of block %#x", parentRoot, currentRoot)
		}
		chain = append(chain, current)
		current, currentRoot = parent, parentRoot
	}

	// The walk collected tip first; reverse into replay order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// LongestOutstandingChain reconstructs the chain for every outstanding
// block and returns the longest one. An outstanding branch with a missing
// ancestor contributes an empty chain instead of failing the selection;
// any other reconstruction failure is logged and the branch skipped.
// Equal-length chains are tied deterministically in favor of the lower
// outstanding tip root.
func (c *BlockCache) LongestOutstandingChain(store KnownBlocker) []*containers.SignedBeaconBlock {
	longest := make([]*containers.SignedBeaconBlock, 0)
	var longestRoot [32]byte
	for root := range c.outstanding {
		chain, err := c.ChainForBlock(c.blocks[root], store)
		if errors.Is(err, ErrMissingAncestor) {
			// A branch waiting on an unseen ancestor must not block
			// chain selection.
			continue
		}
		if err != nil {
			log.WithError(err).WithField("root", fmt.Sprintf("%#x", root)).Error("Could not reconstruct outstanding chain")
			continue
		}
		if len(chain) > len(longest) ||
			(len(chain) == len(longest) && len(chain) > 0 && bytes.Compare(root[:], longestRoot[:]) < 0) {
			longest = chain
			longestRoot = root
		}
	}
	return longest
}

// OutstandingRoots returns the roots currently known but not accepted.
func (c *BlockCache) OutstandingRoots() [][32]byte {
	roots := make([][32]byte, 0, len(c.outstanding))
	for root := range c.outstanding {
		roots = append(roots, root)
	}
	return roots
}

// AcceptedRoot returns the accepted root at the given slot and whether one
// exists.
func (c *BlockCache) AcceptedRoot(slot types.Slot) ([32]byte, bool) {
	if uint64(slot) >= uint64(len(c.accepted)) || c.accepted[slot] == zeroRoot {
		return zeroRoot, false
	}
	return c.accepted[slot], true
}

// BlockByRoot returns the block stored under root, if any.
func (c *BlockCache) BlockByRoot(root [32]byte) (*containers.SignedBeaconBlock, bool) {
	block, ok := c.blocks[root]
	return block, ok
}

func (c *BlockCache) isAccepted(root [32]byte) bool {
	for _, accepted := range c.accepted {
		if accepted == root {
			return true
		}
	}
	return false
}
