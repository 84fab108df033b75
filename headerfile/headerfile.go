// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package headerfile implements the per-branch, fixed-record random access
// file the header chain store persists to: read-at-offset,
// write-at-offset with optional truncation, and a cached size, all behind
// a single mutex per file.
package headerfile

import (
	"os"
	"sync"

	"github.com/EXCCoin/exccd/bpqerr"
)

// HeaderFile is a random access file of fixed-size header records. All
// mutating operations (Write, size cache refresh) are serialized by a
// single mutex; reads take the same mutex so they never race a
// concurrent write.
type HeaderFile struct {
	recordSize int

	mu   sync.Mutex
	path string
	size int64 // cached file size in bytes
}

// New returns a HeaderFile backed by path, with the given fixed record
// size. It does not touch the filesystem; call Refresh or CreateEmpty
// before use.
func New(path string, recordSize int) *HeaderFile {
	return &HeaderFile{path: path, recordSize: recordSize}
}

// Path returns the file's current on-disk path.
func (f *HeaderFile) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// Exists reports whether the backing file is present on disk.
func (f *HeaderFile) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := os.Stat(f.path)
	return err == nil
}

// CreateEmpty creates the backing file if it does not already exist. It is
// a no-op if the file is already present.
func (f *HeaderFile) CreateEmpty() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "create header file", err)
	}
	if err := file.Close(); err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "close header file", err)
	}
	return f.refreshLocked()
}

// Refresh recomputes the cached size from the file on disk. Called
// automatically after every write; exposed so callers can pick up
// out-of-process changes (e.g. at startup).
func (f *HeaderFile) Refresh() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshLocked()
}

func (f *HeaderFile) refreshLocked() error {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		f.size = 0
		return nil
	}
	if err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "stat header file", err)
	}
	f.size = info.Size()
	return nil
}

// Size returns the cached file size in bytes.
func (f *HeaderFile) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

// RecordCount returns the cached file size expressed in whole records.
func (f *HeaderFile) RecordCount() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size / int64(f.recordSize)
}

// ReadAt reads length bytes at the given byte offset.
func (f *HeaderFile) ReadAt(offset int64, length int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		return nil, bpqerr.Wrap(bpqerr.ErrIO, "open header file", err)
	}
	defer file.Close()

	buf := make([]byte, length)
	n, err := file.ReadAt(buf, offset)
	if err != nil && n != length {
		return nil, bpqerr.Wrap(bpqerr.ErrIO, "short read of header file", err)
	}
	return buf, nil
}

// WriteAt writes data at the given byte offset. When truncate is true and
// offset does not equal the file's current size, the file is first
// truncated to offset -- discarding anything beyond it -- before the
// write; when truncate is false, data is overlaid onto the existing
// contents without shrinking the file. The write is flushed and fsynced
// before WriteAt returns, and the cached size is refreshed.
func (f *HeaderFile) WriteAt(offset int64, data []byte, truncate bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "open header file for write", err)
	}
	defer file.Close()

	if truncate && offset != f.size {
		if err := file.Truncate(offset); err != nil {
			return bpqerr.Wrap(bpqerr.ErrIO, "truncate header file", err)
		}
	}

	if _, err := file.WriteAt(data, offset); err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "write header file", err)
	}
	if err := syncFile(file); err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "fsync header file", err)
	}

	return f.refreshLocked()
}

// Rename moves the backing file to newPath on disk and updates Path() to
// match. It is used to quarantine a fork file reconstruction has decided to
// drop, rather than leaving it under a name that looks like a live fork.
func (f *HeaderFile) Rename(newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Rename(f.path, newPath); err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "rename header file", err)
	}
	f.path = newPath
	return nil
}
