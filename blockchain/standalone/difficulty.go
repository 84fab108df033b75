// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package standalone provides standalone functions useful for validating
// proof of work without needing the full blockchain data structures, most
// notably the compact target <-> big.Int conversions used throughout the
// verifier and difficulty retarget.
package standalone

import (
	"math/big"

	"github.com/EXCCoin/exccd/bpqerr"
)

// CompactToBig decodes the compact representation used in the difficulty
// bits field to a whole number N, following the same semantics as
// Bitcoin's nBits encoding:
//
//	N = (bits>>24 & 0xff) tells the number of bytes in N (bitsN)
//	bits&0xffffff is the base, the top three bytes of N
//	N = base << (8 * (bitsN - 3))
//
// bitsN must be in [0x03, 0x1d] and base must be in [0x8000, 0x7fffff];
// CompactToBig returns an error otherwise, matching the codec's strict
// field validation elsewhere.
func CompactToBig(bits uint32) (*big.Int, error) {
	bitsN := (bits >> 24) & 0xff
	if bitsN < 0x03 || bitsN > 0x1d {
		return nil, bpqerr.New(bpqerr.ErrPoW, "bits exponent out of range")
	}
	base := bits & 0xffffff
	if base < 0x8000 || base > 0x7fffff {
		return nil, bpqerr.New(bpqerr.ErrPoW, "bits mantissa out of range")
	}

	target := new(big.Int).SetUint64(uint64(base))
	target.Lsh(target, uint(8*(bitsN-3)))
	return target, nil
}

// BigToCompact encodes a whole number target as a uint32 using the same
// compact representation CompactToBig decodes. It strips leading zero
// bytes from the 32-byte big-endian target down to at least 3 bytes,
// takes the top three bytes as the mantissa, and bumps the exponent by one
// (shifting the mantissa right by 8) whenever the mantissa's sign bit
// would otherwise be set.
func BigToCompact(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}

	bytes := target.Bytes()
	n := uint32(len(bytes))

	var mantissa uint32
	switch {
	case n <= 3:
		mantissa = uint32(new(big.Int).SetBytes(bytes).Uint64())
		mantissa <<= 8 * (3 - n)
	default:
		mantissa = uint32(bytes[0])<<16 | uint32(bytes[1])<<8 | uint32(bytes[2])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		n++
	}

	return n<<24 | mantissa
}
