// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the fixed-size binary header record used by the
// BPQ header chain: the field layout, its serialization/deserialization
// and the identity hash computed over it.
package wire

import (
	"encoding/binary"
	"time"

	"github.com/EXCCoin/exccd/bpqerr"
	"github.com/EXCCoin/exccd/chaincfg/chainhash"
	"github.com/EXCCoin/exccd/hashoracle"
)

// NonceSize is the width in bytes of the post-quantum nonce field.
const NonceSize = 32

// fixedFieldsSize is the number of bytes occupied by every field of a
// BlockHeader except Sol: 1 (MajorVersion) + 4 (Version) + 32 (PrevBlock) +
// 32 (MerkleRoot) + 32 (WitnessMerkleRoot) + 4 (Timestamp) + 4 (Bits) + 32
// (Nonce).
const fixedFieldsSize = 1 + 4 + chainhash.HashSize + chainhash.HashSize + chainhash.HashSize + 4 + 4 + NonceSize

// legacyPreimageSize is the length of the pre-PQ 80-byte Bitcoin header
// preimage: Version(4) + PrevBlock(32) + MerkleRoot(32) + Timestamp(4) +
// Bits(4) + first 4 bytes of Nonce.
const legacyPreimageSize = 4 + chainhash.HashSize + chainhash.HashSize + 4 + 4 + 4

// HeaderSize returns the fixed, network-wide serialized record length for
// a header, given the network's SOL_LENGTH.
func HeaderSize(solLength int) int {
	return fixedFieldsSize + solLength
}

// BlockHeader is the in-memory record for a single BPQ header. BlockHeight
// is tracked alongside the record but is not itself part of the
// serialized bytes.
type BlockHeader struct {
	MajorVersion      uint8
	Version           uint32
	PrevBlock         chainhash.Hash
	MerkleRoot        chainhash.Hash
	WitnessMerkleRoot chainhash.Hash
	Timestamp         time.Time
	Bits              uint32
	Nonce             [NonceSize]byte
	Sol               []byte
	BlockHeight       int64
}

func validateNonceAndSol(h *BlockHeader, solLength int) error {
	if len(h.Sol) != solLength {
		return bpqerr.New(bpqerr.ErrInvalidField,
			"invalid sol length")
	}
	if h.Sol[0] != byte(solLength-1) {
		return bpqerr.New(bpqerr.ErrInvalidField,
			"sol[0] must equal SOL_LENGTH-1")
	}
	return nil
}

// Serialize encodes h to its fixed-length byte representation.
//
// When forHash is true and h.MajorVersion == 0, it instead produces the
// legacy 80-byte Bitcoin pre-image (only the first four bytes of Nonce are
// used), preserving hash identity with the chain's history below the PQ
// activation height.
func Serialize(h *BlockHeader, solLength int, forHash bool) ([]byte, error) {
	if err := validateNonceAndSol(h, solLength); err != nil {
		return nil, err
	}

	if forHash && h.MajorVersion == 0 {
		buf := make([]byte, legacyPreimageSize)
		off := 0
		binary.LittleEndian.PutUint32(buf[off:], h.Version)
		off += 4
		copy(buf[off:], h.PrevBlock[:])
		off += chainhash.HashSize
		copy(buf[off:], h.MerkleRoot[:])
		off += chainhash.HashSize
		binary.LittleEndian.PutUint32(buf[off:], uint32(h.Timestamp.Unix()))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], h.Bits)
		off += 4
		copy(buf[off:], h.Nonce[:4])
		off += 4

		if off != legacyPreimageSize {
			return nil, bpqerr.New(bpqerr.ErrLengthMismatch, "legacy preimage length mismatch")
		}
		return buf, nil
	}

	size := HeaderSize(solLength)
	buf := make([]byte, size)
	off := 0
	buf[off] = h.MajorVersion
	off++
	binary.LittleEndian.PutUint32(buf[off:], h.Version)
	off += 4
	copy(buf[off:], h.PrevBlock[:])
	off += chainhash.HashSize
	copy(buf[off:], h.MerkleRoot[:])
	off += chainhash.HashSize
	copy(buf[off:], h.WitnessMerkleRoot[:])
	off += chainhash.HashSize
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.Timestamp.Unix()))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.Bits)
	off += 4
	copy(buf[off:], h.Nonce[:])
	off += NonceSize
	copy(buf[off:], h.Sol)
	off += solLength

	if off != size {
		return nil, bpqerr.New(bpqerr.ErrLengthMismatch, "header length mismatch")
	}
	return buf, nil
}

// Deserialize decodes a HeaderSize(solLength)-byte record into a
// BlockHeader, attaching the given height.
func Deserialize(data []byte, height int64, solLength int) (*BlockHeader, error) {
	want := HeaderSize(solLength)
	if len(data) != want {
		return nil, bpqerr.New(bpqerr.ErrLengthMismatch, "invalid header length")
	}

	h := &BlockHeader{BlockHeight: height}
	off := 0
	h.MajorVersion = data[off]
	off++
	h.Version = binary.LittleEndian.Uint32(data[off:])
	off += 4
	copy(h.PrevBlock[:], data[off:off+chainhash.HashSize])
	off += chainhash.HashSize
	copy(h.MerkleRoot[:], data[off:off+chainhash.HashSize])
	off += chainhash.HashSize
	copy(h.WitnessMerkleRoot[:], data[off:off+chainhash.HashSize])
	off += chainhash.HashSize
	h.Timestamp = time.Unix(int64(binary.LittleEndian.Uint32(data[off:])), 0).UTC()
	off += 4
	h.Bits = binary.LittleEndian.Uint32(data[off:])
	off += 4
	copy(h.Nonce[:], data[off:off+NonceSize])
	off += NonceSize
	h.Sol = make([]byte, solLength)
	copy(h.Sol, data[off:off+solLength])
	off += solLength

	return h, nil
}

// Hash computes the header's identity hash via the oracle:
// digest(digest(Serialize(h, forHash=true))). The returned hash is treated
// as a big-endian number when compared to a numeric PoW target, and
// displayed in reversed byte order via Hash.String.
func Hash(h *BlockHeader, solLength int, oracle hashoracle.HashOracle) (chainhash.Hash, error) {
	preimage, err := Serialize(h, solLength, true)
	if err != nil {
		return chainhash.Hash{}, err
	}
	first := oracle.Digest(preimage)
	return oracle.Digest(first[:]), nil
}

// IsAllZero reports whether data (expected to be a HeaderSize(solLength)
// record) is the all-zero sentinel used to mark an unfilled slot.
func IsAllZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
