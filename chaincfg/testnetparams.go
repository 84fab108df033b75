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

// testNetPowLimit is the highest proof of work value a BPQ testnet header
// can have. It is the value 2^232 - 1, looser than mainnet so testnet
// blocks are cheap to mine.
var testNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 232), bigOne)

// TestNetParams returns the network parameters for BPQ testnet.
//
// PoWEnabled defaults to false here: testnet blocks are commonly mined by
// hand or by test fixtures without a real Equihash solver.
func TestNetParams() *Params {
	return &Params{
		Name:       "testnet3",
		SolLength:  1344,
		Genesis:    newHashFromStr("af605f57b415d28393bb024761ac51a8585f0cead6f4ee39140a4e8010331762"),
		TestNet:    true,
		PoWEnabled: false,
		PowLimit:   testNetPowLimit,

		TargetTimespan:           14 * 24 * time.Hour,
		RetargetAdjustmentFactor: 4,

		Checkpoints: nil,
	}
}
