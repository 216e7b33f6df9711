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
	"sync"

	"go.uber.org/zap"

	"github.com/nakama-index/ldx/ldxerr"
)

// pooledReader tracks one cached SegmentReader and poolRefs, the number
// of times Get has handed it out.
type pooledReader struct {
	reader *SegmentReader
	poolRefs int
}

// ReaderPool caches open SegmentReaders keyed by segment descriptor so
// repeated access to the same segment (across searches, across merge
// candidate evaluation) reuses one open CoreReaders block instead of
// re-opening term dictionaries and stored-fields readers from scratch.
// Grounded on the ref-counting idiom of bluge's segment_plugin.go,
// generalized into a named pool (bluge keeps reader reuse inline in its
// Writer/Snapshot instead of a separate pool type).
type ReaderPool struct {
	mu  sync.Mutex
	dir Directory
	log *zap.Logger

	byDescriptor map[*SegmentDescriptor]*pooledReader

	// termDictionaryFor loads (or, in tests, fabricates) the term
	// dictionary collaborator for a segment; factored out so tests can
	// supply an in-memory TermDictionary without a real codec.
	termDictionaryFor func(dir Directory, desc *SegmentDescriptor) (TermDictionary, error)
}

// NewReaderPool returns an empty pool reading segment files from dir.
func NewReaderPool(dir Directory, log *zap.Logger, termDictionaryFor func(Directory, *SegmentDescriptor) (TermDictionary, error)) *ReaderPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReaderPool{
		dir:               dir,
		log:               log,
		byDescriptor:      make(map[*SegmentDescriptor]*pooledReader),
		termDictionaryFor: termDictionaryFor,
	}
}

// Get returns the cached SegmentReader for desc, opening and caching one if
// none is cached. Every call for the same desc returns the same
// *SegmentReader and adds one reference to its CoreReaders block; the
// reader stays cached until Drop or Close.
func (p *ReaderPool) Get(desc *SegmentDescriptor) (*SegmentReader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pr, ok := p.byDescriptor[desc]; ok {
		pr.poolRefs++
		pr.reader.core.incRef()
		return pr.reader, nil
	}

	terms, err := p.termDictionaryFor(p.dir, desc)
	if err != nil {
		return nil, err
	}
	reader, err := NewSegmentReader(p.dir, desc, terms)
	if err != nil {
		return nil, err
	}
	p.byDescriptor[desc] = &pooledReader{reader: reader, poolRefs: 1}
	p.log.Debug("opened segment reader", zap.String("segment", desc.Name()))
	return reader, nil
}

// Drop evicts desc's cached reader (called once its segment is removed
// from the live SegmentGraph by a merge) and closes it, releasing one
// reference to its CoreReaders block.
func (p *ReaderPool) Drop(desc *SegmentDescriptor) error {
	p.mu.Lock()
	pr, ok := p.byDescriptor[desc]
	if !ok {
		p.mu.Unlock()
		return nil
	}
	delete(p.byDescriptor, desc)
	p.mu.Unlock()
	return pr.reader.Close()
}

// Close evicts and closes every cached reader, used when the owning
// Writer is shutting down.
func (p *ReaderPool) Close() error {
	p.mu.Lock()
	descs := make([]*SegmentDescriptor, 0, len(p.byDescriptor))
	for d := range p.byDescriptor {
		descs = append(descs, d)
	}
	p.mu.Unlock()

	var firstErr error
	for _, d := range descs {
		if err := p.Drop(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return ldxerr.Wrap(ldxerr.ErrIO, firstErr)
	}
	return nil
}

// Len reports how many segments currently have an open cached reader.
func (p *ReaderPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byDescriptor)
}
