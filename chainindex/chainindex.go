// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainindex provides an optional on-disk accelerator for
// ChainSet's startup reconstruction. It remembers, per fork checkpoint,
// the parent checkpoint and file size the fork held the last time it was
// validated, so a later startup can skip re-reading a fork's first header
// and walking its parent's hash chain when the file is unchanged. The
// directory scan in chainset.Load remains the source of truth: a missing,
// stale, or unreadable index entry just falls back to full validation.
package chainindex

import (
	"encoding/binary"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// Entry records the state a fork checkpoint was last validated at.
type Entry struct {
	ParentCheckpoint int64
	ValidatedSize    int64
}

// Index is a small key-value cache backed by goleveldb, keyed by fork
// checkpoint height.
type Index struct {
	db *leveldb.DB
}

// Open opens (creating if absent) the index stored under path.
func Open(path string) (*Index, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func encodeKey(checkpoint int64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(checkpoint))
	return key[:]
}

func encodeEntry(e Entry) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(e.ParentCheckpoint))
	binary.BigEndian.PutUint64(buf[8:16], uint64(e.ValidatedSize))
	return buf[:]
}

func decodeEntry(data []byte) (Entry, bool) {
	if len(data) != 16 {
		return Entry{}, false
	}
	return Entry{
		ParentCheckpoint: int64(binary.BigEndian.Uint64(data[0:8])),
		ValidatedSize:    int64(binary.BigEndian.Uint64(data[8:16])),
	}, true
}

// Get returns the last-validated entry for checkpoint, if recorded.
func (idx *Index) Get(checkpoint int64) (Entry, bool, error) {
	data, err := idx.db.Get(encodeKey(checkpoint), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := decodeEntry(data)
	return e, ok, nil
}

// Put records that checkpoint was validated against parentCheckpoint at
// file size validatedSize. Callers treat a failure here as non-fatal:
// the index is an accelerator, not a source of truth.
func (idx *Index) Put(checkpoint int64, e Entry) error {
	return idx.db.Put(encodeKey(checkpoint), encodeEntry(e), nil)
}

// Delete removes a stale entry, e.g. once its fork has been dropped or
// merged away by a swap.
func (idx *Index) Delete(checkpoint int64) error {
	return idx.db.Delete(encodeKey(checkpoint), nil)
}
