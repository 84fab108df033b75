// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "chainindex"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestGetMissingEntryReturnsNotFound(t *testing.T) {
	idx := openTestIndex(t)

	_, ok, err := idx.Get(5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	idx := openTestIndex(t)

	want := Entry{ParentCheckpoint: 0, ValidatedSize: 8}
	require.NoError(t, idx.Put(5, want))

	got, ok, err := idx.Get(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestPutOverwritesPreviousEntry(t *testing.T) {
	idx := openTestIndex(t)

	require.NoError(t, idx.Put(5, Entry{ParentCheckpoint: 0, ValidatedSize: 8}))
	require.NoError(t, idx.Put(5, Entry{ParentCheckpoint: 0, ValidatedSize: 12}))

	got, ok, err := idx.Get(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 12, got.ValidatedSize)
}

func TestDeleteRemovesEntry(t *testing.T) {
	idx := openTestIndex(t)

	require.NoError(t, idx.Put(5, Entry{ParentCheckpoint: 0, ValidatedSize: 8}))
	require.NoError(t, idx.Delete(5))

	_, ok, err := idx.Get(5)
	require.NoError(t, err)
	require.False(t, ok)
}
