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

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/require"
)

func TestSegmentMergerPlanPacksSurvivingDocsContiguously(t *testing.T) {
	docs := []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "a"}},
		{DocID: 1, Fields: map[string]string{"title": "b"}},
		{DocID: 2, Fields: map[string]string{"title": "c"}},
	}
	_, _, reader := buildTestSegment(t, docs)
	narrowed := roaring.New()
	narrowed.Add(0)
	narrowed.Add(2) // doc 1 deleted
	deletedReader := reader.WithLiveDocs(narrowed)

	merger := NewSegmentMerger(nil)
	state := merger.Plan([]*SegmentReader{deletedReader})

	require.Equal(t, uint64(DroppedDoc), state.DocMaps[0][1])
	require.Equal(t, uint64(0), state.DocMaps[0][0])
	require.Equal(t, uint64(1), state.DocMaps[0][2])
	require.Equal(t, uint64(2), state.NewDocCount)
}

func TestSegmentMergerMergeTermPostingsInterleavesInDocOrder(t *testing.T) {
	_, dictA, readerA := buildTestSegment(t, []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "hello"}},
		{DocID: 1, Fields: map[string]string{"title": "world"}},
	})
	_, dictB, readerB := buildTestSegment(t, []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "hello"}},
	})

	merger := NewSegmentMerger(nil)
	state := merger.Plan([]*SegmentReader{readerA, readerB})

	cur, err := merger.MergeTermPostings(state, "title", "hello", []TermDictionary{dictA, dictB})
	require.NoError(t, err)

	var docs []int
	for cur.Next() {
		docs = append(docs, cur.DocID())
	}
	require.Equal(t, []int{0, 2}, docs) // readerA doc0 -> merged 0, readerB doc0 -> merged 2
}

func TestProcessSegmentNowRemovesLateDeletedDocFromMergedLiveDocs(t *testing.T) {
	docs := []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "a"}},
		{DocID: 1, Fields: map[string]string{"title": "b"}},
	}
	_, _, reader := buildTestSegment(t, docs)

	merger := NewSegmentMerger(nil)
	state := merger.Plan([]*SegmentReader{reader})
	live := NewMergedLiveDocs(state)
	require.Equal(t, uint64(2), live.GetCardinality())

	lateDeletes := roaring.New()
	lateDeletes.Add(1) // doc 1 deleted after the merge snapshot was taken

	live = merger.ProcessSegmentNow(state, live, 0, lateDeletes)
	require.True(t, live.Contains(0))
	require.False(t, live.Contains(1))
}

func TestProcessSegmentNowIgnoresAlreadyDroppedDoc(t *testing.T) {
	docs := []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "a"}},
		{DocID: 1, Fields: map[string]string{"title": "b"}},
	}
	_, _, reader := buildTestSegment(t, docs)
	narrowed := roaring.New()
	narrowed.Add(0) // doc 1 already deleted before the merge started
	deletedReader := reader.WithLiveDocs(narrowed)

	merger := NewSegmentMerger(nil)
	state := merger.Plan([]*SegmentReader{deletedReader})
	live := NewMergedLiveDocs(state)

	lateDeletes := roaring.New()
	lateDeletes.Add(1) // a delete against an old doc id that was never carried into the merge

	live = merger.ProcessSegmentNow(state, live, 0, lateDeletes)
	require.Equal(t, uint64(1), live.GetCardinality())
	require.True(t, live.Contains(0))
}
