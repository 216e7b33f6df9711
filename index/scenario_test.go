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
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nakama-index/ldx/analysis"
)

// openScenarioWriter opens a Writer over a shared, explicitly-owned
// MemoryDirectory (rather than InMemoryOnlyConfig's per-open directory)
// so a test can close and reopen a Writer against the same persisted
// state, and uses the real StandardAnalyzer so content is tokenized word
// by word instead of the other tests' single-token stub.
func openScenarioWriter(t *testing.T, dir Directory) *Writer {
	t.Helper()
	cfg := InMemoryOnlyConfig()
	cfg.DirectoryFunc = func() Directory { return dir }
	w, err := OpenWriter(cfg, NewMemoryCodec(), analysis.StandardAnalyzer{})
	require.NoError(t, err)
	return w
}

// docFreq counts the live documents among reader's postings for
// field:text. PostingsForTerm walks every document ever indexed for the
// term regardless of current liveness, so this intersects with the
// reader's live-docs view the way a query-time scorer would.
func docFreq(t *testing.T, reader *SegmentReader, field, text string) int {
	t.Helper()
	cur, err := reader.Dictionary().PostingsForTerm(field, text)
	require.NoError(t, err)
	if cur == nil {
		return 0
	}
	live := reader.LiveDocsCopy()
	n := 0
	for cur.Next() {
		if live.Contains(uint32(cur.DocID())) {
			n++
		}
	}
	return n
}

func totalNumDocs(readers []*SegmentReader) int {
	n := 0
	for _, r := range readers {
		n += r.NumDocs()
	}
	return n
}

func closeReaders(readers []*SegmentReader) {
	for _, r := range readers {
		_ = r.Close()
	}
}

// S1 — basic add+commit.
func TestScenarioBasicAddAndCommit(t *testing.T) {
	dir := NewMemoryDirectory()
	w := openScenarioWriter(t, dir)
	defer w.Close()

	require.NoError(t, w.AddDocument(map[string]string{"content": "a b c"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "a d"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "e"}, nil))
	require.NoError(t, w.Commit())

	readers, err := w.OpenReader()
	require.NoError(t, err)
	defer closeReaders(readers)

	require.Equal(t, 3, totalNumDocs(readers))
	require.Equal(t, 2, docFreq(t, readers[0], "content", "a"))
	require.Equal(t, 1, docFreq(t, readers[0], "content", "e"))
}

// S2 — delete by term, continuing from S1.
func TestScenarioDeleteByTerm(t *testing.T) {
	dir := NewMemoryDirectory()
	w := openScenarioWriter(t, dir)
	defer w.Close()

	require.NoError(t, w.AddDocument(map[string]string{"content": "a b c"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "a d"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "e"}, nil))
	require.NoError(t, w.Commit())

	require.NoError(t, w.DeleteDocuments(Term{Field: "content", Text: "a"}))
	require.NoError(t, w.Commit())

	readers, err := w.OpenReader()
	require.NoError(t, err)
	defer closeReaders(readers)

	require.Equal(t, 1, totalNumDocs(readers))
	require.Equal(t, 0, docFreq(t, readers[0], "content", "a"))
	require.Equal(t, 1, docFreq(t, readers[0], "content", "e"))
}

// S3 — merge preserves a delete that lands between the merge's reader
// snapshot and its completion. Three 10-doc segments all share
// content="x"; each doc also carries a segment-unique "id" field so one
// specific document (doc 5 of the first segment) can be targeted without
// touching the others.
func TestScenarioMergePreservesDeleteArrivingMidMerge(t *testing.T) {
	dir := NewMemoryDirectory()
	w := openScenarioWriter(t, dir)
	defer w.Close()

	for seg := 0; seg < 3; seg++ {
		for doc := 0; doc < 10; doc++ {
			fields := map[string]string{
				"content": "x",
				"id":      "seg" + strconv.Itoa(seg) + "doc" + strconv.Itoa(doc),
			}
			require.NoError(t, w.AddDocument(fields, nil))
		}
		require.NoError(t, w.Flush())
	}
	require.Len(t, w.graph.Segments(), 3)

	// Snapshot readers the way a concurrent merge would, before the delete
	// below lands.
	preMerge, err := w.OpenReader()
	require.NoError(t, err)
	closeReaders(preMerge)

	require.NoError(t, w.DeleteDocuments(Term{Field: "id", Text: "seg0doc5"}))
	require.NoError(t, w.ForceMerge(1))

	require.Len(t, w.graph.Segments(), 1)
	merged := w.graph.Segments()[0]
	require.Equal(t, 30, merged.DocCount())
	require.Equal(t, 1, merged.DelCount())

	readers, err := w.OpenReader()
	require.NoError(t, err)
	defer closeReaders(readers)
	require.Equal(t, 29, totalNumDocs(readers))
	require.True(t, readers[0].IsDeleted(5))
}

// S4 — rollback discards in-flight adds, continuing from S1.
func TestScenarioRollbackDiscardsInFlightAdds(t *testing.T) {
	dir := NewMemoryDirectory()
	w := openScenarioWriter(t, dir)

	require.NoError(t, w.AddDocument(map[string]string{"content": "a b c"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "a d"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "e"}, nil))
	require.NoError(t, w.Commit())

	require.NoError(t, w.AddDocument(map[string]string{"content": "f"}, nil))
	require.NoError(t, w.AddDocument(map[string]string{"content": "g"}, nil))
	require.NoError(t, w.Rollback())
	require.NoError(t, w.Close())

	reopened := openScenarioWriter(t, dir)
	defer reopened.Close()

	readers, err := reopened.OpenReader()
	require.NoError(t, err)
	defer closeReaders(readers)
	require.Equal(t, 3, totalNumDocs(readers))
}

// S6 — optimize reduces segment count.
func TestScenarioOptimizeReducesSegmentCount(t *testing.T) {
	dir := NewMemoryDirectory()
	w := openScenarioWriter(t, dir)
	defer w.Close()

	for seg := 0; seg < 20; seg++ {
		for doc := 0; doc < 5; doc++ {
			require.NoError(t, w.AddDocument(map[string]string{"content": "x"}, nil))
		}
		require.NoError(t, w.Flush())
	}
	require.Len(t, w.graph.Segments(), 20)

	require.NoError(t, w.ForceMerge(3))
	require.NoError(t, w.Commit())

	segments := w.graph.Segments()
	require.LessOrEqual(t, len(segments), 3)

	total := 0
	for _, s := range segments {
		total += s.DocCount()
	}
	require.Equal(t, 100, total)
}
