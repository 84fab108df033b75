// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !unix

package headerfile

import "os"

// syncFile flushes file's data to stable storage using the portable
// os.File.Sync, on platforms without golang.org/x/sys/unix's Fdatasync.
func syncFile(file *os.File) error {
	return file.Sync()
}
