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
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Query is the minimal delete-by-query collaborator boundary: anything
// that can report which live docs in a segment it matches.
type Query interface {
	// MatchesInSegment returns the doc ids within [0, docCount) that this
	// query matches, restricted to reader's segment.
	MatchesInSegment(reader *SegmentReader) (*roaring.Bitmap, error)
}

// SegmentDeletes accumulates pending deletions against either the
// in-memory segment currently being built (doc-id list populated, term
// and query maps populated with an "upto" bound of the in-memory doc
// count at the time the delete was issued) or an already-flushed segment
// (doc-id list always empty: term and query deletes against a flushed
// segment stay buffered until ApplyDeletes resolves them against a reader
// of that segment).
type SegmentDeletes struct {
	mu sync.Mutex

	// terms maps a term to the doc-count upper bound in effect when the
	// delete was issued: only documents added before that bound are
	// deleted by it.
	terms map[Term]int

	// queries maps a query to the same kind of upper bound.
	queries map[Query]int

	// docIDs lists doc ids within the in-memory segment being built that
	// are deleted outright (e.g. a failed update's stale copy). Must be
	// empty once this SegmentDeletes is published against a flushed
	// segment.
	docIDs []int

	termDeleteCount int
	bytesUsed       int64
}

// Term identifies a single indexed term for exact-match deletion.
type Term struct {
	Field string
	Text  string
}

const bytesPerTermDelete = 64 // approximate overhead per map entry, for RAM accounting only.
const bytesPerQueryDelete = 32

// NewSegmentDeletes returns an empty delete buffer.
func NewSegmentDeletes() *SegmentDeletes {
	return &SegmentDeletes{
		terms:   make(map[Term]int),
		queries: make(map[Query]int),
	}
}

// AddTerm records a delete-by-term, bounded to documents already present
// when docUpto was captured.
func (sd *SegmentDeletes) AddTerm(t Term, docUpto int) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	if _, exists := sd.terms[t]; !exists {
		sd.bytesUsed += bytesPerTermDelete
		sd.termDeleteCount++
	}
	sd.terms[t] = docUpto
}

// AddQuery records a delete-by-query, bounded the same way as AddTerm.
func (sd *SegmentDeletes) AddQuery(q Query, docUpto int) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	if _, exists := sd.queries[q]; !exists {
		sd.bytesUsed += bytesPerQueryDelete
	}
	sd.queries[q] = docUpto
}

// AddDocID records a delete-by-doc-id against the in-memory segment
// currently being built.
func (sd *SegmentDeletes) AddDocID(docID int) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	sd.docIDs = append(sd.docIDs, docID)
	sd.bytesUsed += 8
}

// TermDeleteCount returns the number of distinct delete-by-term entries
// recorded.
func (sd *SegmentDeletes) TermDeleteCount() int {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.termDeleteCount
}

// BytesUsed estimates this buffer's RAM footprint.
func (sd *SegmentDeletes) BytesUsed() int64 {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.bytesUsed
}

// IsEmpty reports whether there is nothing buffered.
func (sd *SegmentDeletes) IsEmpty() bool {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return len(sd.terms) == 0 && len(sd.queries) == 0 && len(sd.docIDs) == 0
}

// sortedTerms returns this buffer's terms sorted for deterministic,
// single-pass application against a sorted term dictionary.
func (sd *SegmentDeletes) sortedTerms() []Term {
	out := make([]Term, 0, len(sd.terms))
	for t := range sd.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// BufferedDeletes is the process-wide accumulator mapping each already
// flushed segment to the deletes still pending against it, plus global
// counters mirroring the sum of its entries (spec invariant: the union of
// mapped SegmentDeletes equals these counters).
type BufferedDeletes struct {
	mu sync.Mutex

	bySegment map[*SegmentDescriptor]*SegmentDeletes

	globalTermDeleteCount int
	globalBytesUsed       int64
}

// NewBufferedDeletes returns an empty process-wide delete accumulator.
func NewBufferedDeletes() *BufferedDeletes {
	return &BufferedDeletes{
		bySegment: make(map[*SegmentDescriptor]*SegmentDeletes),
	}
}

// PushDeletes merges newDeletes (captured against the in-memory segment,
// which has just been flushed as seg) into the buffer for seg. newDeletes
// must have an empty docIDs list, or this panics: doc ids never migrate
// across segments once flushed, by spec invariant.
func (bd *BufferedDeletes) PushDeletes(seg *SegmentDescriptor, newDeletes *SegmentDeletes) {
	if len(newDeletes.docIDs) != 0 {
		panic("ldx: cannot push doc-id deletes against an already-flushed segment")
	}
	bd.mu.Lock()
	defer bd.mu.Unlock()

	existing, ok := bd.bySegment[seg]
	if !ok {
		existing = NewSegmentDeletes()
		bd.bySegment[seg] = existing
	}
	for t, upto := range newDeletes.terms {
		if _, had := existing.terms[t]; !had {
			bd.globalTermDeleteCount++
			existing.termDeleteCount++
		}
		existing.terms[t] = upto
	}
	for q, upto := range newDeletes.queries {
		existing.queries[q] = upto
	}
	bd.globalBytesUsed += newDeletes.bytesUsed
	existing.bytesUsed += newDeletes.bytesUsed
}

// PendingFor returns the delete buffer for seg, or nil if none is pending.
func (bd *BufferedDeletes) PendingFor(seg *SegmentDescriptor) *SegmentDeletes {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return bd.bySegment[seg]
}

// Clear drops the buffer for seg, called once its deletes have been
// durably applied to the segment's live-docs bitmap and committed.
func (bd *BufferedDeletes) Clear(seg *SegmentDescriptor) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if sd, ok := bd.bySegment[seg]; ok {
		bd.globalTermDeleteCount -= sd.termDeleteCount
		bd.globalBytesUsed -= sd.bytesUsed
		delete(bd.bySegment, seg)
	}
}

// BytesUsed returns the total estimated RAM footprint of all pending
// deletes.
func (bd *BufferedDeletes) BytesUsed() int64 {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return bd.globalBytesUsed
}

// ApplyDeletes resolves every term and query delete pending against
// reader's segment into concrete doc ids and clears them from a fresh copy
// of the segment's live-docs bitmap, per spec §4.4's apply-deletes algorithm:
// each delete only applies to documents that existed (docUpto) at the time
// it was issued, so documents added to the segment afterward (impossible
// for a flushed segment, but relevant mid-merge) are never touched by a
// delete that predates them.
func (bd *BufferedDeletes) ApplyDeletes(reader *SegmentReader, dict TermDictionary) (*roaring.Bitmap, int, error) {
	sd := bd.PendingFor(reader.Descriptor())
	if sd == nil {
		return reader.LiveDocsCopy(), 0, nil
	}

	sd.mu.Lock()
	defer sd.mu.Unlock()

	// live holds LIVE document ids (bit set == document is live); deleting
	// a document clears its bit.
	live := reader.LiveDocsCopy()
	deletedCount := 0

	for _, t := range sd.sortedTerms() {
		upto := sd.terms[t]
		cursor, err := dict.PostingsForTerm(t.Field, t.Text)
		if err != nil {
			return nil, 0, err
		}
		if cursor == nil {
			continue
		}
		for cursor.Next() {
			doc := cursor.DocID()
			if doc >= upto {
				continue
			}
			if live.CheckedRemove(uint32(doc)) {
				deletedCount++
			}
		}
	}

	for q, upto := range sd.queries {
		matches, err := q.MatchesInSegment(reader)
		if err != nil {
			return nil, 0, err
		}
		it := matches.Iterator()
		for it.HasNext() {
			doc := it.Next()
			if int(doc) >= upto {
				continue
			}
			if live.CheckedRemove(doc) {
				deletedCount++
			}
		}
	}

	return live, deletedCount, nil
}
