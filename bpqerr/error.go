// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bpqerr defines the error kinds produced by the header chain
// store and verifier.
package bpqerr

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of error returned by the codec, header file,
// branch, verifier or chain set.
type ErrorCode int

const (
	// ErrInvalidField indicates a header carries a malformed nonce or sol
	// field (wrong length, or a sol whose first byte doesn't match the
	// network's SOL_LENGTH-1 marker).
	ErrInvalidField ErrorCode = iota

	// ErrLengthMismatch indicates a serialized header or chunk is not the
	// expected length.
	ErrLengthMismatch

	// ErrLinkage indicates a header's PrevBlock does not match the hash
	// of the header it is meant to extend.
	ErrLinkage

	// ErrPoW indicates a header's bits or hash fail the proof-of-work
	// rule.
	ErrPoW

	// ErrCheckpointMismatch indicates the hash computed at a checkpoint
	// height disagrees with the network's checkpoint table.
	ErrCheckpointMismatch

	// ErrIO indicates a filesystem operation on a header file failed.
	ErrIO

	// ErrNotFound indicates a requested height has no stored header.
	ErrNotFound
)

// String returns the English description of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrInvalidField:
		return "invalid field"
	case ErrLengthMismatch:
		return "length mismatch"
	case ErrLinkage:
		return "linkage error"
	case ErrPoW:
		return "proof-of-work error"
	case ErrCheckpointMismatch:
		return "checkpoint mismatch"
	case ErrIO:
		return "io error"
	case ErrNotFound:
		return "not found"
	default:
		return "unknown error code"
	}
}

// Error satisfies the error interface and carries both a machine-readable
// Code and a human description, optionally wrapping an underlying cause.
type Error struct {
	Code        ErrorCode
	Description string
	Err         error
}

// Error returns the human readable description of the error.
func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Description, e.Err)
	}
	return e.Description
}

// Unwrap returns the underlying cause, if any, so errors.Is/As work across
// this package's boundary.
func (e Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and description.
func New(c ErrorCode, desc string) Error {
	return Error{Code: c, Description: desc}
}

// Wrap creates an Error with the given code, description and underlying
// cause.
func Wrap(c ErrorCode, desc string, err error) Error {
	return Error{Code: c, Description: desc, Err: err}
}

// Is reports whether err carries the given error code. It allows callers to
// write `bpqerr.Is(err, bpqerr.ErrLinkage)` regardless of wrapping.
func Is(err error, c ErrorCode) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Code == c
	}
	return false
}
