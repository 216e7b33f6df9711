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
	"container/heap"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"
)

// MergeState carries the input readers and their resulting doc-id remap
// tables through one merge execution, the shape bleve's zap segment
// merger returns as ([][]uint64, uint64, error): one remap slice per
// input segment (old doc id -> new doc id, or a sentinel for dropped
// docs), plus the new segment's total doc count.
type MergeState struct {
	Readers   []*SegmentReader
	DocMaps   [][]uint64 // DocMaps[i][oldDocID] = newDocID, or dropped marker
	NewDocCount uint64
}

// DroppedDoc marks a document excluded from the merged segment because it
// was already deleted when Plan ran. Documents deleted later, mid-merge,
// keep their mapping and are cleared from the merged live-docs bitmap by
// ProcessSegmentNow instead.
const DroppedDoc = ^uint64(0)

// SegmentMerger fuses a set of segment readers into one new segment.
// Grounded on bluge/index/merge.go's executeMergeTask and
// ProcessSegmentNow.
type SegmentMerger struct {
	log *zap.Logger
}

// NewSegmentMerger returns a merger that logs via log (or a no-op logger).
func NewSegmentMerger(log *zap.Logger) *SegmentMerger {
	if log == nil {
		log = zap.NewNop()
	}
	return &SegmentMerger{log: log}
}

// Plan computes, for each input reader, the old->new doc id remap implied
// by dropping its currently-deleted documents and packing the remaining
// ones contiguously after all earlier readers' surviving documents. This
// is the first half of a merge: the remap table it returns is what lets
// ProcessSegmentNow later translate a delete issued against an old doc id
// into the merged segment's coordinate space.
func (m *SegmentMerger) Plan(readers []*SegmentReader) *MergeState {
	state := &MergeState{Readers: readers, DocMaps: make([][]uint64, len(readers))}
	var next uint64
	for i, r := range readers {
		docMap := make([]uint64, r.Descriptor().DocCount())
		for doc := 0; doc < len(docMap); doc++ {
			if r.IsDeleted(doc) {
				docMap[doc] = DroppedDoc
				continue
			}
			docMap[doc] = next
			next++
		}
		state.DocMaps[i] = docMap
	}
	state.NewDocCount = next
	return state
}

// MergeTermPostings interleaves the per-reader postings for one term
// across all of state's readers into a single ascending-doc-id cursor in
// the merged segment's coordinate space, using a priority queue the way
// Lucene-family mergers interleave sorted term enumerators (grounded on
// the golucene postings priority-queue shape surveyed in other_examples).
func (m *SegmentMerger) MergeTermPostings(state *MergeState, field, text string, dicts []TermDictionary) (DocumentCursor, error) {
	pq := &mergePQ{}
	heap.Init(pq)
	for i, dict := range dicts {
		if dict == nil {
			continue
		}
		cur, err := dict.PostingsForTerm(field, text)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			continue
		}
		item := &mergePQItem{cursor: cur, readerIdx: i}
		if item.advance(state) {
			heap.Push(pq, item)
		}
	}
	return &mergedTermCursor{pq: pq, state: state}, nil
}

type mergePQItem struct {
	cursor    DocumentCursor
	readerIdx int
	mappedDoc uint64
	freq      int
}

// advance pulls the cursor forward until it lands on a surviving
// (non-dropped) document, remapping to the merged segment's doc id.
func (it *mergePQItem) advance(state *MergeState) bool {
	for it.cursor.Next() {
		mapped := state.DocMaps[it.readerIdx][it.cursor.DocID()]
		if mapped == DroppedDoc {
			continue
		}
		it.mappedDoc = mapped
		it.freq = it.cursor.Frequency()
		return true
	}
	return false
}

type mergePQ []*mergePQItem

func (q mergePQ) Len() int { return len(q) }
func (q mergePQ) Less(i, j int) bool {
	if q[i].mappedDoc != q[j].mappedDoc {
		return q[i].mappedDoc < q[j].mappedDoc
	}
	return q[i].readerIdx < q[j].readerIdx
}
func (q mergePQ) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *mergePQ) Push(x interface{}) { *q = append(*q, x.(*mergePQItem)) }
func (q *mergePQ) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

type mergedTermCursor struct {
	pq      *mergePQ
	state   *MergeState
	current *mergePQItem
}

func (c *mergedTermCursor) Next() bool {
	if c.pq.Len() == 0 {
		return false
	}
	item := heap.Pop(c.pq).(*mergePQItem)
	c.current = item
	if item.advance(c.state) {
		heap.Push(c.pq, item)
	}
	return true
}

func (c *mergedTermCursor) DocID() int     { return int(c.current.mappedDoc) }
func (c *mergedTermCursor) Frequency() int { return c.current.freq }

// ProcessSegmentNow folds deletes committed against an input segment
// after the merge began into the merge's output live-docs bitmap, so a
// document deleted mid-merge is not resurrected by the merge that started
// before its delete was recorded. This mirrors bluge/index/merge.go's
// ProcessSegmentNow: the merge's own doc-id remap table is the bridge
// between "old segment's doc id" (what the late delete names) and "new
// merged segment's doc id" (what the output live-docs bitmap indexes).
func (m *SegmentMerger) ProcessSegmentNow(state *MergeState, live *roaring.Bitmap, readerIdx int, lateDeletes *roaring.Bitmap) *roaring.Bitmap {
	docMap := state.DocMaps[readerIdx]
	it := lateDeletes.Iterator()
	for it.HasNext() {
		oldDoc := it.Next()
		if int(oldDoc) >= len(docMap) {
			continue
		}
		mapped := docMap[oldDoc]
		if mapped == DroppedDoc {
			continue
		}
		live.Remove(uint32(mapped))
	}
	return live
}

// NewMergedLiveDocs returns the all-live bitmap for a freshly merged
// segment, the starting point ProcessSegmentNow narrows as late deletes
// against its inputs are folded in.
func NewMergedLiveDocs(state *MergeState) *roaring.Bitmap {
	live := roaring.New()
	live.AddRange(0, state.NewDocCount)
	return live
}
