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

// SegmentCodec is the pluggable boundary between the core and the actual
// posting-list/stored-fields encoding, grounded on
// bluge/index/segment_plugin.go's SegmentPlugin (New/Load/Merge). Posting
// list byte-layout is an explicit Non-goal, so this repository ships only
// one concrete codec — memoryCodec below — used by the reference
// StandardAnalyzer-backed indexing chain and by every test.
type SegmentCodec interface {
	// Build analyzes docs (already flushed from RAM) into a new segment's
	// term dictionary and stored-fields store, returning its descriptor.
	Build(graph *SegmentGraph, docs []*PendingDocument, analyzer Analyzer) (*SegmentDescriptor, TermDictionary, StoredFieldsReader, error)

	// Dictionary returns the previously built term dictionary for a
	// segment, used by ReaderPool.termDictionaryFor.
	Dictionary(segmentName string) (TermDictionary, error)

	// StoredFields returns the previously built stored-fields reader for
	// a segment.
	StoredFields(segmentName string) (StoredFieldsReader, error)

	// Drop discards a codec's retained state for a segment once it is no
	// longer referenced by any live SegmentGraph.
	Drop(segmentName string)
}

// Analyzer turns field text into a sequence of indexable terms. Defined
// structurally (no import of package analysis) so any type satisfying
// this narrow signature — including analysis.StandardAnalyzer — works
// here without creating an import cycle.
type Analyzer interface {
	Analyze(field, text string) []string
}

// PendingDocument is one document buffered in RAM, not yet flushed to a
// segment.
type PendingDocument struct {
	DocID  int // local id within the segment currently being built
	Fields map[string]string
	Stored map[string][]byte
}

// StoredFieldsReader retrieves a document's stored (non-indexed, verbatim)
// field values.
type StoredFieldsReader interface {
	VisitStoredFields(doc int, visit func(field string, value []byte) bool) error
}

// memoryCodec keeps every segment's term dictionary and stored fields
// resident in RAM, keyed by segment name, rather than serializing a
// posting-list byte format to the Directory — the posting-list encoding
// Non-goal means there is no spec'd on-disk layout to target, so this
// reference codec favors a simple, inspectable in-memory representation.
// A real deployment would swap this for a concrete on-disk SegmentCodec
// without any change to the rest of the index package.
type memoryCodec struct {
	mu    sync.RWMutex
	dicts map[string]*memoryTermDictionary
	docs  map[string]*memoryStoredFields
}

// NewMemoryCodec returns the reference in-memory SegmentCodec.
func NewMemoryCodec() SegmentCodec {
	return &memoryCodec{
		dicts: make(map[string]*memoryTermDictionary),
		docs:  make(map[string]*memoryStoredFields),
	}
}

func (c *memoryCodec) Build(graph *SegmentGraph, docs []*PendingDocument, analyzer Analyzer) (*SegmentDescriptor, TermDictionary, StoredFieldsReader, error) {
	name := graph.NewSegmentName()
	dict := &memoryTermDictionary{postings: map[string]map[string]*postingsList{}}
	stored := &memoryStoredFields{byDoc: map[int]map[string][]byte{}}

	for _, d := range docs {
		stored.byDoc[d.DocID] = d.Stored
		for field, text := range d.Fields {
			terms := analyzer.Analyze(field, text)
			freq := map[string]int{}
			for _, t := range terms {
				freq[t]++
			}
			byField, ok := dict.postings[field]
			if !ok {
				byField = map[string]*postingsList{}
				dict.postings[field] = byField
			}
			for t, f := range freq {
				pl, ok := byField[t]
				if !ok {
					pl = &postingsList{docs: roaring.New(), freq: map[int]int{}}
					byField[t] = pl
				}
				pl.docs.Add(uint32(d.DocID))
				pl.freq[d.DocID] = f
			}
		}
	}

	desc := NewSegmentDescriptor(name, len(docs))

	c.mu.Lock()
	c.dicts[name] = dict
	c.docs[name] = stored
	c.mu.Unlock()

	return desc, dict, stored, nil
}

func (c *memoryCodec) Dictionary(segmentName string) (TermDictionary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dicts[segmentName], nil
}

func (c *memoryCodec) StoredFields(segmentName string) (StoredFieldsReader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs[segmentName], nil
}

func (c *memoryCodec) Drop(segmentName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dicts, segmentName)
	delete(c.docs, segmentName)
}

type postingsList struct {
	docs *roaring.Bitmap
	freq map[int]int
}

type memoryTermDictionary struct {
	postings map[string]map[string]*postingsList
}

func (d *memoryTermDictionary) PostingsForTerm(field, text string) (DocumentCursor, error) {
	byField, ok := d.postings[field]
	if !ok {
		return nil, nil
	}
	pl, ok := byField[text]
	if !ok {
		return nil, nil
	}
	return NewBitmapTermCursor(pl.docs, pl.freq), nil
}

// Terms returns every distinct term indexed for field, sorted, used by
// SegmentMerger to enumerate what to merge.
func (d *memoryTermDictionary) Terms(field string) []string {
	byField, ok := d.postings[field]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(byField))
	for t := range byField {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Fields returns every field with at least one indexed term.
func (d *memoryTermDictionary) Fields() []string {
	out := make([]string, 0, len(d.postings))
	for f := range d.postings {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

type memoryStoredFields struct {
	byDoc map[int]map[string][]byte
}

func (s *memoryStoredFields) VisitStoredFields(doc int, visit func(field string, value []byte) bool) error {
	for field, value := range s.byDoc[doc] {
		if !visit(field, value) {
			break
		}
	}
	return nil
}
