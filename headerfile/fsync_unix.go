// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build unix

package headerfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile flushes file's data to stable storage. On unix it prefers
// fdatasync over fsync: header writes don't need the inode's metadata
// (mtime, size bookkeeping already tracked separately) flushed, only the
// record bytes themselves.
func syncFile(file *os.File) error {
	err := unix.Fdatasync(int(file.Fd()))
	if err != nil {
		return file.Sync()
	}
	return nil
}
