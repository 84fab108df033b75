// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network-constant parameters the header
// chain store and verifier consume: the genesis hash, the hard-coded
// checkpoint table, the PoW limit and retarget timespan, and the record
// layout constants (SOL_LENGTH, header size).
package chaincfg

import (
	"math/big"
	"time"

	"github.com/EXCCoin/exccd/chaincfg/chainhash"
)

// Checkpoint identifies a block by the hash and proof-of-work target that
// must hold at that height, allowing the verifier to short-circuit
// recomputation for historical chunks.
type Checkpoint struct {
	Hash   chainhash.Hash
	Target *big.Int
}

// Params groups the network-constant parameters the codec, the verifier
// and the chain set all consume.
type Params struct {
	// Name is the network's human-readable name (mainnet, testnet3,
	// regtest).
	Name string

	// SolLength is SOL_LENGTH, the width in bytes of a header's
	// Equihash-like solution field.
	SolLength int

	// Genesis is the network's genesis block hash.
	Genesis chainhash.Hash

	// Checkpoints is the ordered, per-2016-block-chunk checkpoint
	// table committed by the binary, oldest first.
	Checkpoints []Checkpoint

	// TestNet indicates a network on which PoWEnabled may default off.
	TestNet bool

	// PoWEnabled controls whether header verification enforces the
	// proof-of-work rule (target match and hash-below-target). Disabled
	// on networks where blocks aren't mined competitively.
	PoWEnabled bool

	// PowLimit is the highest (easiest) proof-of-work target permitted
	// on the network.
	PowLimit *big.Int

	// TargetTimespan is the expected wall-clock duration of one
	// 2016-header chunk (14 days for Bitcoin-style retargeting).
	TargetTimespan time.Duration

	// RetargetAdjustmentFactor records how much the difficulty may
	// swing in a single retarget (4x in either direction). The
	// verifier's retarget applies a fixed factor of 4 and does not read
	// this field.
	RetargetAdjustmentFactor int64
}

// HeaderSize returns the fixed, network-wide serialized header record
// length: 141 + SolLength.
func (p *Params) HeaderSize() int {
	return 141 + p.SolLength
}

const chunkSize = 2016

// ChunkSize is the number of contiguous headers making up one retarget
// chunk.
func ChunkSize() int {
	return chunkSize
}

var bigOne = big.NewInt(1)

func newHashFromStr(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("chaincfg: invalid hard-coded hash: " + s)
	}
	return *h
}
