// Copyright 2026 The ldx Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryDirectoryPersistLoadRoundTrip(t *testing.T) {
	d := NewMemoryDirectory()
	require.NoError(t, d.Persist(ItemKindSegment, "_0.fnm", []byte("hello"), nil))

	got, err := d.Load("_0.fnm")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestMemoryDirectoryLoadMissingFileErrors(t *testing.T) {
	d := NewMemoryDirectory()
	_, err := d.Load("missing")
	require.Error(t, err)
}

func TestMemoryDirectoryListFiltersByItemKind(t *testing.T) {
	d := NewMemoryDirectory()
	require.NoError(t, d.Persist(ItemKindSegment, "_0.fnm", []byte("a"), nil))
	require.NoError(t, d.Persist(ItemKindSnapshot, "segments_0", []byte("b"), nil))

	segments, err := d.List(ItemKindSegment)
	require.NoError(t, err)
	require.Equal(t, []string{"_0.fnm"}, segments)

	snapshots, err := d.List(ItemKindSnapshot)
	require.NoError(t, err)
	require.Equal(t, []string{"segments_0"}, snapshots)
}

func TestMemoryDirectoryRemove(t *testing.T) {
	d := NewMemoryDirectory()
	require.NoError(t, d.Persist(ItemKindSegment, "_0.fnm", []byte("a"), nil))
	require.NoError(t, d.Remove("_0.fnm"))
	_, err := d.Load("_0.fnm")
	require.Error(t, err)
}

func TestMemoryDirectoryLockIsExclusive(t *testing.T) {
	d := NewMemoryDirectory()
	require.NoError(t, d.Lock())
	require.Error(t, d.Lock())
	require.NoError(t, d.Unlock())
	require.NoError(t, d.Lock())
}

func TestMemoryDirectoryStatsReflectsPersistedBytes(t *testing.T) {
	d := NewMemoryDirectory()
	require.NoError(t, d.Persist(ItemKindSegment, "_0.fnm", []byte("hello"), nil))
	stats := d.Stats()
	require.Equal(t, 1, stats.NumFiles)
	require.Equal(t, int64(5), stats.TotalSize)
}
