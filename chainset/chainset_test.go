// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainset

import (
	"testing"
	"time"

	"github.com/EXCCoin/exccd/chaincfg"
	"github.com/EXCCoin/exccd/chaincfg/chainhash"
	"github.com/EXCCoin/exccd/hashoracle"
	"github.com/EXCCoin/exccd/wire"
	"github.com/stretchr/testify/require"
)

func testParams() *chaincfg.Params {
	params := &chaincfg.Params{
		Name:           "testvector",
		SolLength:      9,
		PoWEnabled:     false,
		TargetTimespan: 14 * 24 * time.Hour,
	}
	// The tests' height-0 header is mkHeader(0, zero hash); its hash is the
	// network genesis that Branch.GetHash(0) returns.
	params.Genesis, _ = wire.Hash(mkHeader(0, chainhash.Hash{}, params.SolLength), params.SolLength, hashoracle.SHA256{})
	return params
}

func mkHeader(height int64, prev chainhash.Hash, solLength int) *wire.BlockHeader {
	sol := make([]byte, solLength)
	sol[0] = byte(solLength - 1)
	return &wire.BlockHeader{
		MajorVersion: 1,
		Version:      1,
		PrevBlock:    prev,
		Bits:         0x1effffff,
		Sol:          sol,
		BlockHeight:  height,
	}
}

func hashOf(t *testing.T, h *wire.BlockHeader, solLength int) chainhash.Hash {
	t.Helper()
	hash, err := wire.Hash(h, solLength, hashoracle.SHA256{})
	require.NoError(t, err)
	return hash
}

func newLoadedChainSet(t *testing.T, params *chaincfg.Params) *ChainSet {
	t.Helper()
	cs := New(t.TempDir(), params, hashoracle.SHA256{})
	require.NoError(t, cs.Load())
	return cs
}

func TestConnectHeaderGenesisAndLinearExtend(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	h0 := mkHeader(0, chainhash.Hash{}, params.SolLength)
	ok, err := cs.ConnectHeader(h0)
	require.NoError(t, err)
	require.True(t, ok)

	root, found := cs.Resolve(0)
	require.True(t, found)
	require.EqualValues(t, 0, root.Height())

	h1 := mkHeader(1, hashOf(t, h0, params.SolLength), params.SolLength)
	ok, err = cs.ConnectHeader(h1)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, root.Height())

	got, err := root.ReadHeader(1)
	require.NoError(t, err)
	require.EqualValues(t, h1.BlockHeight, got.BlockHeight)
}

func TestConnectHeaderRejectsBadLinkage(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	h0 := mkHeader(0, chainhash.Hash{}, params.SolLength)
	ok, err := cs.ConnectHeader(h0)
	require.NoError(t, err)
	require.True(t, ok)

	bad := mkHeader(1, chainhash.Hash{0xff, 0xff, 0xff}, params.SolLength)
	ok, err = cs.ConnectHeader(bad)
	require.NoError(t, err)
	require.False(t, ok)

	root, _ := cs.Resolve(0)
	require.EqualValues(t, 0, root.Height())
}

func TestConnectHeaderCreatesForkAndReorgsViaSwap(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	// Build a 11-header main chain (heights 0..10).
	headers := make([]*wire.BlockHeader, 0, 13)
	prev := chainhash.Hash{}
	for height := int64(0); height <= 10; height++ {
		h := mkHeader(height, prev, params.SolLength)
		ok, err := cs.ConnectHeader(h)
		require.NoError(t, err)
		require.True(t, ok)
		headers = append(headers, h)
		prev = hashOf(t, h, params.SolLength)
	}

	root, _ := cs.Resolve(0)
	require.EqualValues(t, 10, root.Height())

	// Fork off height 4, building a competing branch from height 5.
	forkPrevHash := hashOf(t, headers[4], params.SolLength)
	forkHeader5 := mkHeader(5, forkPrevHash, params.SolLength)
	ok, err := cs.ConnectHeader(forkHeader5)
	require.NoError(t, err)
	require.True(t, ok)

	fork, found := cs.Resolve(5)
	require.True(t, found)
	require.False(t, fork.IsRoot())
	require.EqualValues(t, 5, fork.Height())
	require.EqualValues(t, 10, root.Height(), "main chain must be unaffected by fork creation")

	// Extend the fork up to height 12 (strictly past the replaced
	// parent suffix of 6 records, heights 5..10), triggering a swap.
	// ConnectHeader (not a direct SaveHeader on the fork object) is used
	// throughout, since once the swap happens mid-sequence the "winning"
	// chain's continuation belongs to whichever branch now has the
	// longer tip -- exactly what a real caller re-resolves on each call.
	forkPrev := hashOf(t, forkHeader5, params.SolLength)
	for height := int64(6); height <= 12; height++ {
		h := mkHeader(height, forkPrev, params.SolLength)
		ok, err := cs.ConnectHeader(h)
		require.NoError(t, err)
		require.True(t, ok)
		forkPrev = hashOf(t, h, params.SolLength)
	}

	require.EqualValues(t, 12, root.Height(), "root must now hold the winning fork's longer chain")

	discarded, found := cs.Resolve(5)
	require.True(t, found)
	require.EqualValues(t, 5, discarded.Checkpoint)
	require.EqualValues(t, 10, discarded.Height(), "the discarded branch must hold the old main suffix 5..10")
}

func TestConnectChunkRejectsWrongLength(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	_, err := cs.ConnectChunk(0, []byte{0x00})
	require.Error(t, err)
}

func TestConnectChunkAcceptsValidChunkAndGrowsFile(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	chunkSize := chaincfg.ChunkSize()
	headerSize := params.HeaderSize()
	data := make([]byte, 0, chunkSize*headerSize)
	prev := chainhash.Hash{}
	for i := 0; i < chunkSize; i++ {
		h := mkHeader(int64(i), prev, params.SolLength)
		raw, err := wire.Serialize(h, params.SolLength, false)
		require.NoError(t, err)
		data = append(data, raw...)
		prev = hashOf(t, h, params.SolLength)
	}

	ok, err := cs.ConnectChunk(0, data)
	require.NoError(t, err)
	require.True(t, ok)

	root, found := cs.Resolve(0)
	require.True(t, found)
	require.EqualValues(t, chunkSize, root.Size())
	require.EqualValues(t, chunkSize-1, root.Height())
}

func TestBranchNameOfChildlessRootIsMain(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	root, _ := cs.Resolve(0)
	require.Equal(t, "main", cs.BranchName(root))
}

func TestEffectiveCheckpointFollowsMaxChild(t *testing.T) {
	params := testParams()
	cs := newLoadedChainSet(t, params)

	prev := chainhash.Hash{}
	var hashAt []chainhash.Hash
	for height := int64(0); height <= 4; height++ {
		h := mkHeader(height, prev, params.SolLength)
		ok, err := cs.ConnectHeader(h)
		require.NoError(t, err)
		require.True(t, ok)
		prev = hashOf(t, h, params.SolLength)
		hashAt = append(hashAt, prev)
	}

	root, _ := cs.Resolve(0)
	require.Equal(t, int64(0), cs.EffectiveCheckpoint(root))
	require.Equal(t, int64(5), cs.BranchSize(root))

	// Fork off height 3, competing for height 4 only.
	fork4 := mkHeader(4, hashAt[3], params.SolLength)
	ok, err := cs.ConnectHeader(fork4)
	require.NoError(t, err)
	require.True(t, ok)

	fork, found := cs.Resolve(4)
	require.True(t, found)
	require.False(t, fork.IsRoot())

	child, ok := cs.MaxChild(root)
	require.True(t, ok)
	require.Equal(t, int64(4), child.Checkpoint)
	require.Equal(t, int64(4), cs.EffectiveCheckpoint(root))
	require.Equal(t, int64(1), cs.BranchSize(root), "main's own suffix above the fork point is just height 4")
}
