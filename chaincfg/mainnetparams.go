// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"
)

// mainPowLimit is the highest proof of work value a BPQ mainnet header can
// have. It is the value 2^224 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// MainNetParams returns the network parameters for BPQ mainnet.
//
// The checkpoint table below locks in the hash and post-chunk difficulty
// target for the first two retarget chunks; a real deployment appends one
// entry per release.
func MainNetParams() *Params {
	return &Params{
		Name:       "mainnet",
		SolLength:  1344,
		Genesis:    newHashFromStr("eeca5e5b5ab893c88739d21907f6eea214ed0ddb397571dd445490dd25b4df77"),
		TestNet:    false,
		PoWEnabled: true,
		PowLimit:   mainPowLimit,

		TargetTimespan:           14 * 24 * time.Hour,
		RetargetAdjustmentFactor: 4,

		Checkpoints: []Checkpoint{
			{
				Hash:   newHashFromStr("9d05b1d091db08aba52fd77b3be2a305a8dc631365693331194c2bd23c3d87f6"),
				Target: new(big.Int).Rsh(mainPowLimit, 12),
			},
			{
				Hash:   newHashFromStr("632a399d15799ea0bc2ed3ad85543105d71e7be2d7958148ce3ec7cedb5461ea"),
				Target: new(big.Int).Rsh(mainPowLimit, 16),
			},
		},
	}
}
