// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the 32-byte hash type used throughout the
// header chain store to identify headers and checkpoints.
package chainhash

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the number of bytes in a hash.
const HashSize = 32

// MaxHashStringSize is the maximum length of a hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error indicating the caller specified a hash
// string that has too many characters.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v bytes", MaxHashStringSize)

// Hash is used to hold the 32-byte identity hash of a header. The byte
// array is stored in the same internal order the digest function returns
// it in; String (and the wire format's displayed hex) shows it reversed,
// matching the historical Bitcoin convention.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash.
func (h Hash) String() string {
	var hex [HashSize * 2]byte
	reversed := reverse(h)
	hexEncode(hex[:], reversed[:])
	return string(hex[:])
}

// CloneBytes returns a copy of the raw bytes of the hash, in internal
// (non-reversed) order.
func (h *Hash) CloneBytes() []byte {
	newHash := make([]byte, HashSize)
	copy(newHash, h[:])
	return newHash
}

// SetBytes sets the bytes which represent the hash, in internal order.
// An error is returned if the number of bytes passed in is not HashSize.
func (h *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", len(newHash), HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// IsEqual returns true if the two hashes are identical. Two nil pointers
// are equal; a nil and a non-nil pointer are never equal, even when the
// non-nil one holds the all-zero hash.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// IsZero reports whether the hash is the all-zero sentinel value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// NewHash returns a new Hash from a byte slice in internal order. An error
// is returned if the number of bytes passed in is not HashSize.
func NewHash(newHash []byte) (*Hash, error) {
	var sh Hash
	err := sh.SetBytes(newHash)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// NewHashFromStr creates a Hash from a string. The string is expected to
// be the display form of a hash (byte-reversed hex), exactly as block
// explorers and RPC interfaces show it.
func NewHashFromStr(hash string) (*Hash, error) {
	ret := new(Hash)
	err := Decode(ret, hash)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode decodes the display-order hex string encoding of a Hash into dst.
// The display order is byte-reversed relative to the internal storage
// order, matching the historical Bitcoin convention.
func Decode(dst *Hash, src string) error {
	if len(src) > MaxHashStringSize {
		return ErrHashStrSize
	}

	var srcBytes []byte
	if len(src)%2 == 0 {
		srcBytes = []byte(src)
	} else {
		srcBytes = make([]byte, 1, len(src)+1)
		srcBytes[0] = '0'
		srcBytes = append(srcBytes, src...)
	}

	var displayOrder Hash
	_, err := hex.Decode(displayOrder[HashSize-hex.DecodedLen(len(srcBytes)):], srcBytes)
	if err != nil {
		return err
	}

	*dst = reverse(displayOrder)
	return nil
}

func reverse(h Hash) Hash {
	var out Hash
	for i := 0; i < HashSize/2; i++ {
		out[i], out[HashSize-1-i] = h[HashSize-1-i], h[i]
	}
	return out
}

const hexDigits = "0123456789abcdef"

func hexEncode(dst, src []byte) {
	for i, b := range src {
		dst[i*2] = hexDigits[b>>4]
		dst[i*2+1] = hexDigits[b&0x0f]
	}
}
