// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hashoracle defines the digest capability the header chain store
// relies on to compute header identity hashes and check proof of work. It
// is injected rather than hard-coded so the core never depends on a
// specific cryptographic primitive.
package hashoracle

import "github.com/EXCCoin/exccd/chaincfg/chainhash"

// HashOracle computes the 32-byte digest used for header identity and
// proof-of-work checks. The codec's Hash function applies it twice
// (digest(digest(x))) to get the Bitcoin-style double-hash; implementations
// of Digest itself are expected to be domain-separated, but the core
// treats the function as an opaque black box.
type HashOracle interface {
	Digest(data []byte) chainhash.Hash
}

// SHA256 is the default HashOracle: a single SHA-256 round. Combined with
// the codec's digest(digest(x)) hash formula this reproduces the standard
// Bitcoin-style double-SHA256 header hash. It is provided so callers that
// don't need a custom primitive have a working default; it is not itself
// part of the core's specified algorithm surface.
type SHA256 struct{}

// Digest implements HashOracle.
func (SHA256) Digest(data []byte) chainhash.Hash {
	return sha256Digest(data)
}
