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

func TestNewSegmentDescriptorStartsWithoutDeletions(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	require.Equal(t, "_0", d.Name())
	require.Equal(t, 10, d.DocCount())
	require.False(t, d.HasDeletions())
	require.Equal(t, int64(-1), d.DelGen())
}

func TestAdvanceDelGenMovesCurrentAndNextForward(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	d.AdvanceDelGen()
	require.True(t, d.HasDeletions())
	require.Equal(t, int64(1), d.DelGen())

	d.AdvanceDelGen()
	require.Equal(t, int64(2), d.DelGen())
}

func TestAdvanceNextWriteDelGenOnErrorDoesNotAffectCurrent(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	d.AdvanceNextWriteDelGenOnError()
	require.Equal(t, int64(-1), d.DelGen())
	d.AdvanceDelGen()
	require.Equal(t, int64(2), d.DelGen())
}

func TestSetDelCountValidatesRange(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	require.NoError(t, d.SetDelCount(5))
	require.Equal(t, 5, d.DelCount())

	require.Error(t, d.SetDelCount(-1))
	require.Error(t, d.SetDelCount(11))
}

func TestNormGenerationDefaultsToMinusOne(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	require.Equal(t, int64(-1), d.NormGeneration("title"))

	d.SetNormGeneration("title", 3)
	require.Equal(t, int64(3), d.NormGeneration("title"))

	d.SetNormGeneration("title", 4)
	require.Equal(t, int64(4), d.NormGeneration("title"))
}

func TestCloneIsIndependent(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	d.SetNormGeneration("title", 1)

	clone := d.Clone()
	clone.SetNormGeneration("title", 2)
	clone.AdvanceDelGen()

	require.Equal(t, int64(1), d.NormGeneration("title"))
	require.False(t, d.HasDeletions())
}

func TestFilesIncludesLiveDocsOnlyAfterDeletion(t *testing.T) {
	d := NewSegmentDescriptor("_0", 10)
	files := d.Files()
	for _, f := range files {
		require.NotContains(t, f, ExtLiveDocs)
	}

	d.AdvanceDelGen()
	files = d.Files()
	require.Contains(t, files, SegmentFileName("_0", ExtLiveDocs, d.DelGen()))
}

func TestFilesDerivesStoredFieldsFromSharedDocStoreSegment(t *testing.T) {
	d := NewSegmentDescriptor("_1", 5)
	require.Equal(t, -1, d.DocStoreOffset())

	d.SetDocStore(5, "_0", false)
	files := d.Files()

	require.Contains(t, files, SegmentFileName("_0", ExtStoredFields, -1))
	require.Contains(t, files, SegmentFileName("_0", ExtStoredIndex, -1))
	for _, f := range files {
		require.NotContains(t, f, SegmentFileName("_1", ExtStoredFields, -1))
	}
	require.Equal(t, 5, d.DocStoreOffset())
	require.Equal(t, "_0", d.DocStoreSegment())
	require.False(t, d.DocStoreIsCompoundFile())
}
