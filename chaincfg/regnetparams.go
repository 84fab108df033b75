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

// regNetPowLimit is the highest proof of work value a BPQ regression test
// header can have. It is the value 2^255 - 1, trivially satisfiable so
// fixtures never need to mine.
var regNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// RegNetParams returns the network parameters for BPQ regression test mode.
func RegNetParams() *Params {
	return &Params{
		Name:       "regtest",
		SolLength:  9,
		Genesis:    newHashFromStr("c05821ccdf8dbf0285f4c307a8d7777861f3f6b827fa6fcab6fc381c3b92108e"),
		TestNet:    true,
		PoWEnabled: false,
		PowLimit:   regNetPowLimit,

		TargetTimespan:           14 * 24 * time.Hour,
		RetargetAdjustmentFactor: 4,

		Checkpoints: nil,
	}
}
