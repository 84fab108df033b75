// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package branch

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/EXCCoin/exccd/bpqerr"
	"github.com/EXCCoin/exccd/chaincfg"
	"github.com/EXCCoin/exccd/chaincfg/chainhash"
	"github.com/EXCCoin/exccd/hashoracle"
	"github.com/EXCCoin/exccd/headerfile"
	"github.com/EXCCoin/exccd/wire"
	"github.com/stretchr/testify/require"
)

// fakeResolver resolves parents out of a plain map keyed by checkpoint, so
// tests never need a full chainset registry.
type fakeResolver struct {
	byCheckpoint map[int64]*Branch
}

func (r *fakeResolver) Resolve(checkpoint int64) (*Branch, bool) {
	b, ok := r.byCheckpoint[checkpoint]
	return b, ok
}

// countingObserver just counts ConsiderSwap calls.
type countingObserver struct {
	calls int
}

func (o *countingObserver) ConsiderSwap(b *Branch) error {
	o.calls++
	return nil
}

func testParams(solLength int) *chaincfg.Params {
	return &chaincfg.Params{
		Name:      "testvector",
		SolLength: solLength,
	}
}

func newTestBranch(t *testing.T, dir string, checkpoint int64, parentID *int64, params *chaincfg.Params, resolver Resolver, observer SaveObserver) *Branch {
	t.Helper()
	f := headerfile.New(filepath.Join(dir, "headers"), params.HeaderSize())
	require.NoError(t, f.CreateEmpty())
	b := New(checkpoint, parentID, f, params, hashoracle.SHA256{}, resolver, observer)
	require.NoError(t, b.Refresh())
	return b
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

func TestNewBranchStartsEmpty(t *testing.T) {
	params := testParams(9)
	b := newTestBranch(t, t.TempDir(), 0, nil, params, nil, nil)

	require.True(t, b.IsRoot())
	require.EqualValues(t, 0, b.Size())
	require.EqualValues(t, -1, b.Height())
}

func TestSaveHeaderAppendsAndRejectsGaps(t *testing.T) {
	params := testParams(9)
	obs := &countingObserver{}
	b := newTestBranch(t, t.TempDir(), 0, nil, params, nil, obs)

	h0 := mkHeader(0, chainhash.Hash{}, params.SolLength)
	require.NoError(t, b.SaveHeader(h0))
	require.EqualValues(t, 0, b.Height())
	require.Equal(t, 1, obs.calls)

	// Attempting to save height 2 (skipping 1) must fail.
	h2 := mkHeader(2, chainhash.Hash{}, params.SolLength)
	err := b.SaveHeader(h2)
	require.Error(t, err)
	require.True(t, bpqerr.Is(err, bpqerr.ErrLinkage))

	h1 := mkHeader(1, chainhash.Hash{}, params.SolLength)
	require.NoError(t, b.SaveHeader(h1))
	require.EqualValues(t, 1, b.Height())
	require.Equal(t, 2, obs.calls)
}

func TestReadHeaderReturnsNilAboveTip(t *testing.T) {
	params := testParams(9)
	b := newTestBranch(t, t.TempDir(), 0, nil, params, nil, nil)

	h, err := b.ReadHeader(5)
	require.NoError(t, err)
	require.Nil(t, h)
}

func TestReadHeaderDelegatesToParent(t *testing.T) {
	params := testParams(9)

	parent := newTestBranch(t, t.TempDir(), 0, nil, params, nil, nil)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, parent.SaveHeader(mkHeader(i, chainhash.Hash{}, params.SolLength)))
	}

	parentCheckpoint := int64(0)
	resolver := &fakeResolver{byCheckpoint: map[int64]*Branch{parentCheckpoint: parent}}
	child := newTestBranch(t, t.TempDir(), 5, &parentCheckpoint, params, resolver, nil)

	got, err := child.ReadHeader(2)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.EqualValues(t, 2, got.BlockHeight)
}

func TestReadHeaderDelegationFailsWithoutResolvableParent(t *testing.T) {
	params := testParams(9)
	dir := t.TempDir()

	parentCheckpoint := int64(0)
	child := newTestBranch(t, dir, 5, &parentCheckpoint, params, &fakeResolver{byCheckpoint: map[int64]*Branch{}}, nil)

	_, err := child.ReadHeader(2)
	require.Error(t, err)
	require.True(t, bpqerr.Is(err, bpqerr.ErrNotFound))
}

func TestGetHashUsesCheckpointTableOnBoundary(t *testing.T) {
	params := testParams(9)
	wantHash := chainhash.Hash{0xAB}
	params.Checkpoints = []chaincfg.Checkpoint{
		{Hash: wantHash, Target: big.NewInt(1)},
	}
	b := newTestBranch(t, t.TempDir(), 0, nil, params, nil, nil)

	got, err := b.GetHash(int64(chaincfg.ChunkSize()) - 1)
	require.NoError(t, err)
	require.Equal(t, wantHash, got)
}

func TestGetHashComputesFromStoredHeaderOnNonBoundaryWithinCheckpointRange(t *testing.T) {
	params := testParams(9)
	params.Checkpoints = []chaincfg.Checkpoint{
		{Hash: chainhash.Hash{0xAB}, Target: big.NewInt(1)},
	}
	b := newTestBranch(t, t.TempDir(), 0, nil, params, nil, nil)
	require.NoError(t, b.SaveHeader(mkHeader(0, chainhash.Hash{}, params.SolLength)))
	h1 := mkHeader(1, chainhash.Hash{}, params.SolLength)
	require.NoError(t, b.SaveHeader(h1))

	want, err := wire.Hash(h1, params.SolLength, hashoracle.SHA256{})
	require.NoError(t, err)

	got, err := b.GetHash(1)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestGetHashComputesFromStoredHeaderAboveCheckpointRange(t *testing.T) {
	params := testParams(9)
	b := newTestBranch(t, t.TempDir(), 0, nil, params, nil, nil)
	require.NoError(t, b.SaveHeader(mkHeader(0, chainhash.Hash{}, params.SolLength)))
	require.NoError(t, b.SaveHeader(mkHeader(1, chainhash.Hash{}, params.SolLength)))

	got, err := b.GetHash(1)
	require.NoError(t, err)
	require.False(t, got.IsZero())
}
