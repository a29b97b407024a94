package cache

import (
	"bytes"
	"testing"

	"github.com/beaconsim/beaconsim/consensus-types/containers"
	types "github.com/beaconsim/beaconsim/consensus-types/primitives"
	"github.com/beaconsim/beaconsim/shared/testutil/assert"
	"github.com/beaconsim/beaconsim/shared/testutil/require"
)

type mapStore struct {
	known map[[32]byte]bool
}

func newMapStore(roots ...[32]byte) *mapStore {
	known := make(map[[32]byte]bool)
	for _, root := range roots {
		known[root] = true
	}
	return &mapStore{known: known}
}

func (s *mapStore) HasBlock(root [32]byte) bool {
	return s.known[root]
}

func genesisBlock() *containers.BeaconBlock {
	return &containers.BeaconBlock{Slot: 0, Body: &containers.BeaconBlockBody{}}
}

// child builds a signed block at the given slot whose parent is parentRoot.
// The filler byte goes into the state root so sibling blocks get distinct
// roots.
func child(t *testing.T, slot types.Slot, parentRoot [32]byte, filler byte) (*containers.SignedBeaconBlock, [32]byte) {
	block := &containers.BeaconBlock{
		Slot:       slot,
		ParentRoot: parentRoot,
		StateRoot:  [32]byte{filler},
		Body:       &containers.BeaconBlockBody{},
	}
	root, err := block.HashTreeRoot()
	require.NoError(t, err)
	return &containers.SignedBeaconBlock{Block: block}, root
}

func TestBlockCache_New(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)

	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	root, ok := c.AcceptedRoot(0)
	require.Equal(t, true, ok)
	assert.Equal(t, genesisRoot, root)
	_, ok = c.BlockByRoot(genesisRoot)
	assert.Equal(t, true, ok)
	assert.Equal(t, 0, len(c.OutstandingRoots()))
}

func TestBlockCache_InsertBlock(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, rootA := child(t, 5, genesisRoot, 0xaa)
	require.NoError(t, c.InsertBlock(blockA))

	_, ok := c.BlockByRoot(rootA)
	assert.Equal(t, true, ok)
	require.Equal(t, 1, len(c.OutstandingRoots()))
	assert.Equal(t, rootA, c.OutstandingRoots()[0])
	// Not accepted yet, only outstanding.
	_, ok = c.AcceptedRoot(5)
	assert.Equal(t, false, ok)
}

func TestBlockCache_InsertBlock_SecondAtSameHeight(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, _ := child(t, 5, genesisRoot, 0xaa)
	blockB, _ := child(t, 5, genesisRoot, 0xbb)
	require.NoError(t, c.InsertBlock(blockA))

	// A second distinct proposal at slot 5, whether A is merely
	// outstanding or already accepted.
	err = c.InsertBlock(blockB)
	require.ErrorContains(t, "second block at same height", err)

	require.NoError(t, c.AcceptBlocks(blockA))
	err = c.InsertBlock(blockB)
	require.ErrorContains(t, "second block at same height", err)
}

func TestBlockCache_InsertBlock_SameRootTwice(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, _ := child(t, 5, genesisRoot, 0xaa)
	require.NoError(t, c.InsertBlock(blockA))
	require.NoError(t, c.InsertBlock(blockA))
	assert.Equal(t, 1, len(c.OutstandingRoots()))
}

func TestBlockCache_AcceptBlocks(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, rootA := child(t, 1, genesisRoot, 0xaa)
	require.NoError(t, c.InsertBlock(blockA))
	require.NoError(t, c.AcceptBlocks(blockA))

	root, ok := c.AcceptedRoot(1)
	require.Equal(t, true, ok)
	assert.Equal(t, rootA, root)
	assert.Equal(t, 0, len(c.OutstandingRoots()))

	// Inserting an accepted block again is a no-op.
	require.NoError(t, c.InsertBlock(blockA))
	assert.Equal(t, 0, len(c.OutstandingRoots()))
}

func TestBlockCache_ChainForBlock(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, rootA := child(t, 1, genesisRoot, 0xaa)
	blockB, rootB := child(t, 2, rootA, 0xbb)
	blockC, _ := child(t, 3, rootB, 0xcc)
	require.NoError(t, c.InsertBlock(blockA))
	require.NoError(t, c.InsertBlock(blockB))
	require.NoError(t, c.InsertBlock(blockC))

	chain, err := c.ChainForBlock(blockC, newMapStore(genesisRoot))
	require.NoError(t, err)
	require.Equal(t, 3, len(chain))
	assert.Equal(t, blockA, chain[0])
	assert.Equal(t, blockB, chain[1])
	assert.Equal(t, blockC, chain[2])
}

func TestBlockCache_ChainForBlock_BoundedByStore(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, rootA := child(t, 1, genesisRoot, 0xaa)
	blockB, _ := child(t, 2, rootA, 0xbb)
	require.NoError(t, c.InsertBlock(blockA))
	require.NoError(t, c.InsertBlock(blockB))

	// The store already knows A; only B needs replay.
	chain, err := c.ChainForBlock(blockB, newMapStore(genesisRoot, rootA))
	require.NoError(t, err)
	require.Equal(t, 1, len(chain))
	assert.Equal(t, blockB, chain[0])
}

func TestBlockCache_ChainForBlock_MissingAncestor(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)

	orphanParent := [32]byte{0xde, 0xad}
	orphan, _ := child(t, 4, orphanParent, 0xaa)
	require.NoError(t, c.InsertBlock(orphan))

	_, err = c.ChainForBlock(orphan, newMapStore())
	require.ErrorContains(t, "parent block not known", err)
}

func TestBlockCache_LongestOutstandingChain(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	// Chain of two plus a broken branch with an unknown parent.
	blockA, rootA := child(t, 1, genesisRoot, 0xaa)
	blockB, _ := child(t, 2, rootA, 0xbb)
	broken, _ := child(t, 3, [32]byte{0xde, 0xad}, 0xcc)
	require.NoError(t, c.InsertBlock(blockA))
	require.NoError(t, c.InsertBlock(blockB))
	require.NoError(t, c.InsertBlock(broken))

	chain := c.LongestOutstandingChain(newMapStore(genesisRoot))
	require.Equal(t, 2, len(chain))
	assert.Equal(t, blockA, chain[0])
	assert.Equal(t, blockB, chain[1])
}

func TestBlockCache_ChainForBlock_CyclicAncestry(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)

	// Two blocks referencing each other as parents, inserted under
	// caller-supplied roots.
	rootX := [32]byte{0x0a}
	rootY := [32]byte{0x0b}
	blockX := &containers.SignedBeaconBlock{Block: &containers.BeaconBlock{
		Slot: 1, ParentRoot: rootY, Body: &containers.BeaconBlockBody{},
	}}
	blockY := &containers.SignedBeaconBlock{Block: &containers.BeaconBlock{
		Slot: 2, ParentRoot: rootX, Body: &containers.BeaconBlockBody{},
	}}
	require.NoError(t, c.InsertBlockWithRoot(blockX, rootX))
	require.NoError(t, c.InsertBlockWithRoot(blockY, rootY))

	_, err = c.ChainForBlock(blockY, newMapStore())
	require.ErrorContains(t, "exceeds cached depth", err)
}

func TestBlockCache_LongestOutstandingChain_DeterministicTies(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	// Two outstanding tips with equal-length chains.
	blockA, rootA := child(t, 1, genesisRoot, 0xaa)
	blockB, rootB := child(t, 2, genesisRoot, 0xbb)
	require.NoError(t, c.InsertBlock(blockA))
	require.NoError(t, c.InsertBlock(blockB))

	want := blockA
	if bytes.Compare(rootB[:], rootA[:]) < 0 {
		want = blockB
	}
	// The tie must resolve the same way regardless of the outstanding
	// set's iteration order.
	for i := 0; i < 50; i++ {
		chain := c.LongestOutstandingChain(newMapStore(genesisRoot))
		require.Equal(t, 1, len(chain))
		assert.Equal(t, want, chain[0])
	}
}

func TestBlockCache_LongestOutstandingChain_SkipsUnhashableBranch(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)
	genesisRoot, err := genesis.HashTreeRoot()
	require.NoError(t, err)

	blockA, _ := child(t, 1, genesisRoot, 0xaa)
	require.NoError(t, c.InsertBlock(blockA))
	// A branch whose tip cannot be hashed: the body exceeds the
	// attestation list bound.
	bad := &containers.SignedBeaconBlock{Block: &containers.BeaconBlock{
		Slot:       2,
		ParentRoot: genesisRoot,
		Body:       &containers.BeaconBlockBody{Attestations: make([]*containers.Attestation, 129)},
	}}
	require.NoError(t, c.InsertBlockWithRoot(bad, [32]byte{0xbb}))

	chain := c.LongestOutstandingChain(newMapStore(genesisRoot))
	require.Equal(t, 1, len(chain))
	assert.Equal(t, blockA, chain[0])
}

func TestBlockCache_LongestOutstandingChain_Empty(t *testing.T) {
	genesis := genesisBlock()
	c, err := NewBlockCache(genesis)
	require.NoError(t, err)

	assert.Equal(t, 0, len(c.LongestOutstandingChain(newMapStore())))
}
