// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the Verifier: proof-of-work target
// arithmetic, chunk-boundary retargeting, per-header linkage checking and
// whole-chunk verification.
package blockchain

import (
	"math/big"

	"github.com/EXCCoin/exccd/blockchain/standalone"
	"github.com/EXCCoin/exccd/bpqerr"
	"github.com/EXCCoin/exccd/chaincfg"
	"github.com/EXCCoin/exccd/chaincfg/chainhash"
	"github.com/EXCCoin/exccd/hashoracle"
	"github.com/EXCCoin/exccd/wire"
)

// ChainReader is the slice of Branch's read surface the verifier needs: a
// way to fetch the header at a height and the (possibly checkpoint-backed)
// hash at a height, without depending on the branch package directly.
type ChainReader interface {
	ReadHeader(height int64) (*wire.BlockHeader, error)
	GetHash(height int64) (chainhash.Hash, error)
}

// Verifier computes/validates proof-of-work targets, verifies header
// linkage, and validates whole chunks of 2016 contiguous headers.
type Verifier struct {
	params *chaincfg.Params
	oracle hashoracle.HashOracle
}

// New returns a Verifier for the given network parameters and digest
// capability.
func New(params *chaincfg.Params, oracle hashoracle.HashOracle) *Verifier {
	return &Verifier{params: params, oracle: oracle}
}

// BitsToTarget decodes the compact bits representation into a target,
// rejecting exponents and mantissas outside the valid compact-bits range.
func (v *Verifier) BitsToTarget(bits uint32) (*big.Int, error) {
	return standalone.CompactToBig(bits)
}

// TargetToBits encodes a target back into its compact bits representation.
func (v *Verifier) TargetToBits(target *big.Int) uint32 {
	return standalone.BigToCompact(target)
}

// GetTarget returns the proof-of-work target that applies to chunk
// index+1, i.e. the target computed FROM chunk index. index == -1 names
// the network's maximum (easiest) target; index below the checkpoint
// table's length is served directly from the table.
func (v *Verifier) GetTarget(chain ChainReader, index int64) (*big.Int, error) {
	if index == -1 {
		return v.params.PowLimit, nil
	}
	if index < int64(len(v.params.Checkpoints)) {
		return v.params.Checkpoints[index].Target, nil
	}

	chunkSize := int64(chaincfg.ChunkSize())
	first, err := chain.ReadHeader(index * chunkSize)
	if err != nil {
		return nil, err
	}
	last, err := chain.ReadHeader(index*chunkSize + chunkSize - 1)
	if err != nil {
		return nil, err
	}
	if first == nil || last == nil {
		return nil, bpqerr.New(bpqerr.ErrNotFound, "get_target: chunk boundary header missing")
	}

	oldTarget, err := v.BitsToTarget(last.Bits)
	if err != nil {
		return nil, err
	}

	targetTimespan := int64(v.params.TargetTimespan.Seconds())
	actualTimespan := last.Timestamp.Unix() - first.Timestamp.Unix()
	if actualTimespan < targetTimespan/4 {
		actualTimespan = targetTimespan / 4
	}
	if actualTimespan > targetTimespan*4 {
		actualTimespan = targetTimespan * 4
	}

	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))
	if newTarget.Cmp(v.params.PowLimit) > 0 {
		newTarget = v.params.PowLimit
	}
	return newTarget, nil
}

// VerifyHeader checks h's linkage to prevHash and, when PoWEnabled, its
// proof of work against target. It does not check h's position in a
// chunk's retarget boundary -- callers verifying a whole chunk should use
// VerifyChunk instead.
func (v *Verifier) VerifyHeader(h *wire.BlockHeader, prevHash chainhash.Hash, target *big.Int) error {
	if h.PrevBlock != prevHash {
		return bpqerr.New(bpqerr.ErrLinkage, "verify_header: prev_block does not match expected parent hash")
	}

	if !v.params.PoWEnabled {
		return nil
	}

	if v.TargetToBits(target) != h.Bits {
		return bpqerr.New(bpqerr.ErrPoW, "verify_header: bits does not match the target for this height")
	}

	hash, err := wire.Hash(h, v.solLength(), v.oracle)
	if err != nil {
		return err
	}
	hashNum := new(big.Int).SetBytes(hash[:])
	if hashNum.Cmp(target) > 0 {
		return bpqerr.New(bpqerr.ErrPoW, "verify_header: hash does not meet target")
	}
	return nil
}

func (v *Verifier) solLength() int {
	return v.params.SolLength
}

// VerifyChunk validates an entire 2016-header chunk, given as chunkSize
// already-decoded headers, checking every header with VerifyHeader against
// its predecessor and, for the chunk's final header, that the
// chunk's hash matches the network's checkpoint table when index falls
// within it.
func (v *Verifier) VerifyChunk(chain ChainReader, index int64, prevHash chainhash.Hash, target *big.Int, headers []*wire.BlockHeader) error {
	chunkSize := chaincfg.ChunkSize()
	if len(headers) != chunkSize {
		return bpqerr.New(bpqerr.ErrLengthMismatch, "verify_chunk: wrong header count")
	}

	prev := prevHash
	for _, h := range headers {
		if err := v.VerifyHeader(h, prev, target); err != nil {
			return err
		}
		hash, err := wire.Hash(h, v.solLength(), v.oracle)
		if err != nil {
			return err
		}
		prev = hash
	}

	if index < int64(len(v.params.Checkpoints)) {
		if prev != v.params.Checkpoints[index].Hash {
			return bpqerr.New(bpqerr.ErrCheckpointMismatch, "verify_chunk: chunk tail hash does not match checkpoint")
		}
	}
	return nil
}
