// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hashoracle

import (
	"crypto/sha256"

	"github.com/EXCCoin/exccd/chaincfg/chainhash"
)

// sha256Digest computes a single SHA-256 round over data. The codec calls
// a HashOracle's Digest twice to derive the header identity hash, so this
// single round is deliberately not doubled here.
func sha256Digest(data []byte) chainhash.Hash {
	return chainhash.Hash(sha256.Sum256(data))
}
