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

	"github.com/nakama-index/ldx/analysis"
)

func buildTestSegment(t *testing.T, docs []*PendingDocument) (*SegmentDescriptor, TermDictionary, *SegmentReader) {
	t.Helper()
	codec := NewMemoryCodec()
	graph := NewSegmentGraph()
	desc, dict, _, err := codec.Build(graph, docs, analysis.StandardAnalyzer{})
	require.NoError(t, err)
	reader, err := NewSegmentReader(NewMemoryDirectory(), desc, dict)
	require.NoError(t, err)
	return desc, dict, reader
}

func TestSegmentDeletesAddTermTracksByteUsageOncePerTerm(t *testing.T) {
	sd := NewSegmentDeletes()
	sd.AddTerm(Term{Field: "title", Text: "hello"}, 3)
	require.Equal(t, 1, sd.TermDeleteCount())
	used := sd.BytesUsed()
	require.True(t, used > 0)

	sd.AddTerm(Term{Field: "title", Text: "hello"}, 5)
	require.Equal(t, 1, sd.TermDeleteCount())
	require.Equal(t, used, sd.BytesUsed())
}

func TestSegmentDeletesIsEmpty(t *testing.T) {
	sd := NewSegmentDeletes()
	require.True(t, sd.IsEmpty())
	sd.AddDocID(3)
	require.False(t, sd.IsEmpty())
}

func TestBufferedDeletesPushDeletesPanicsOnDocIDs(t *testing.T) {
	bd := NewBufferedDeletes()
	seg := NewSegmentDescriptor("_0", 3)
	sd := NewSegmentDeletes()
	sd.AddDocID(1)

	require.Panics(t, func() { bd.PushDeletes(seg, sd) })
}

func TestBufferedDeletesPushAndClear(t *testing.T) {
	bd := NewBufferedDeletes()
	seg := NewSegmentDescriptor("_0", 3)
	sd := NewSegmentDeletes()
	sd.AddTerm(Term{Field: "title", Text: "hello"}, 3)
	bd.PushDeletes(seg, sd)

	require.NotNil(t, bd.PendingFor(seg))
	require.True(t, bd.BytesUsed() > 0)

	bd.Clear(seg)
	require.Nil(t, bd.PendingFor(seg))
	require.Equal(t, int64(0), bd.BytesUsed())
}

func TestApplyDeletesRemovesMatchingTermWithinUpto(t *testing.T) {
	docs := []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "hello world"}},
		{DocID: 1, Fields: map[string]string{"title": "hello there"}},
		{DocID: 2, Fields: map[string]string{"title": "goodbye world"}},
	}
	_, dict, reader := buildTestSegment(t, docs)

	bd := NewBufferedDeletes()
	sd := NewSegmentDeletes()
	sd.AddTerm(Term{Field: "title", Text: "hello"}, 2) // only docs 0,1 are "in scope"
	bd.PushDeletes(reader.Descriptor(), sd)

	live, deleted, err := bd.ApplyDeletes(reader, dict)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)
	require.False(t, live.Contains(0))
	require.False(t, live.Contains(1))
	require.True(t, live.Contains(2))
}

func TestApplyDeletesHonorsDocUptoBound(t *testing.T) {
	docs := []*PendingDocument{
		{DocID: 0, Fields: map[string]string{"title": "hello world"}},
		{DocID: 1, Fields: map[string]string{"title": "hello there"}},
	}
	_, dict, reader := buildTestSegment(t, docs)

	bd := NewBufferedDeletes()
	sd := NewSegmentDeletes()
	sd.AddTerm(Term{Field: "title", Text: "hello"}, 1) // only doc 0 existed at issue time
	bd.PushDeletes(reader.Descriptor(), sd)

	live, deleted, err := bd.ApplyDeletes(reader, dict)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.False(t, live.Contains(0))
	require.True(t, live.Contains(1))
}

func TestApplyDeletesWithNoPendingDeletesReturnsLiveCopy(t *testing.T) {
	docs := []*PendingDocument{{DocID: 0, Fields: map[string]string{"title": "hello"}}}
	_, dict, reader := buildTestSegment(t, docs)

	bd := NewBufferedDeletes()
	live, deleted, err := bd.ApplyDeletes(reader, dict)
	require.NoError(t, err)
	require.Equal(t, 0, deleted)
	require.True(t, live.Contains(0))
}
