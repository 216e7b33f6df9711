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

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/atomic"

	"github.com/nakama-index/ldx/ldxerr"
)

// refCounter is the shared lifecycle contract for anything kept alive by
// reference count: the CoreReaders block, the live-docs bitmap, each
// field's norm buffer. Grounded on bluge's closeOnLastRefCounter idiom.
type refCounter interface {
	incRef()
	decRef() error
}

// closeOnLastRefCounter wraps a closer so the underlying resource is
// closed exactly once, when the last reference drops.
type closeOnLastRefCounter struct {
	ref   atomic.Int64
	close func() error
}

func newCloseOnLastRefCounter(closeFn func() error) *closeOnLastRefCounter {
	c := &closeOnLastRefCounter{close: closeFn}
	c.ref.Store(1)
	return c
}

func (c *closeOnLastRefCounter) incRef() {
	c.ref.Inc()
}

func (c *closeOnLastRefCounter) decRef() error {
	if c.ref.Dec() == 0 {
		if c.close != nil {
			return c.close()
		}
	}
	return nil
}

// CoreReaders is the part of a segment's read machinery that is identical
// across every open/cloned SegmentReader for the same segment: term
// dictionary, postings streams, stored fields, term vectors. It is opened
// once per segment and shared by reference count.
type CoreReaders struct {
	*closeOnLastRefCounter

	segmentName string
	terms       TermDictionary
}

// OpenCoreReaders opens (or, in this reference implementation, wraps) the
// shared per-segment read machinery for desc around the already-loaded
// terms dictionary.
func OpenCoreReaders(dir Directory, desc *SegmentDescriptor, terms TermDictionary) (*CoreReaders, error) {
	cr := &CoreReaders{segmentName: desc.Name(), terms: terms}
	cr.closeOnLastRefCounter = newCloseOnLastRefCounter(func() error {
		if closer, ok := terms.(interface{ Close() error }); ok {
			return closer.Close()
		}
		return nil
	})
	return cr, nil
}

// SegmentReader is a read view of exactly one segment: a shared
// CoreReaders block plus this view's own live-docs bitmap and norms,
// which diverge across clones via copy-on-write as deletes are applied.
type SegmentReader struct {
	mu sync.RWMutex

	desc *SegmentDescriptor
	core *CoreReaders

	// live holds the set of LIVE document ids (bit set == live). Nil
	// means "no deletions": every doc in [0, docCount) is live.
	live *roaring.Bitmap

	norms map[string]*Norm

	closed bool
}

// Norm is one field's per-document length-normalization byte array, shared
// by reference count across clones until one of them mutates it, at which
// point that clone copies the buffer before writing (copy-on-write).
type Norm struct {
	*closeOnLastRefCounter

	field    string
	data     []byte
	dirty    bool
	original *Norm
}

// NewSegmentReader opens a fresh read view over desc. If desc has no
// deletions, live is nil (every doc id is implicitly live).
func NewSegmentReader(dir Directory, desc *SegmentDescriptor, terms TermDictionary) (*SegmentReader, error) {
	core, err := OpenCoreReaders(dir, desc, terms)
	if err != nil {
		return nil, err
	}
	var live *roaring.Bitmap
	if desc.HasDeletions() {
		live, err = loadLiveDocs(dir, desc)
		if err != nil {
			return nil, err
		}
	}
	return &SegmentReader{desc: desc, core: core, live: live, norms: map[string]*Norm{}}, nil
}

func loadLiveDocs(dir Directory, desc *SegmentDescriptor) (*roaring.Bitmap, error) {
	name := SegmentFileName(desc.Name(), ExtLiveDocs, desc.DelGen())
	data, err := dir.Load(name)
	if err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	bm := roaring.New()
	if _, err := bm.FromBuffer(data); err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
	}
	return bm, nil
}

// Descriptor returns the segment descriptor this reader is a view of.
func (r *SegmentReader) Descriptor() *SegmentDescriptor { return r.desc }

// Dictionary returns this reader's term dictionary, the read surface a
// delete-by-query or merge-time term enumeration needs.
func (r *SegmentReader) Dictionary() TermDictionary { return r.core.terms }

// NumDocs returns the live document count.
func (r *SegmentReader) NumDocs() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.live == nil {
		return r.desc.DocCount()
	}
	return int(r.live.GetCardinality())
}

// IsDeleted reports whether doc has been deleted in this reader's view.
func (r *SegmentReader) IsDeleted(doc int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.live == nil {
		return false
	}
	return !r.live.Contains(uint32(doc))
}

// LiveDocsCopy returns a fresh, independently-mutable copy of the current
// live-docs bitmap, materializing the implicit all-live set if none has
// been allocated yet. Used as the starting point for applying new deletes
// without mutating readers still relying on the previous generation.
func (r *SegmentReader) LiveDocsCopy() *roaring.Bitmap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.live == nil {
		bm := roaring.New()
		bm.AddRange(0, uint64(r.desc.DocCount()))
		return bm
	}
	return r.live.Clone()
}

// WithLiveDocs returns a new SegmentReader sharing this reader's
// CoreReaders (ref-counted) but carrying a new live-docs bitmap, the
// copy-on-write step that follows applying a batch of deletes.
func (r *SegmentReader) WithLiveDocs(live *roaring.Bitmap) *SegmentReader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.core.incRef()
	clone := &SegmentReader{desc: r.desc, core: r.core, live: live, norms: r.norms}
	return clone
}

// Norm returns the current norm values for field, or nil if the field has
// no norms recorded.
func (r *SegmentReader) Norm(field string) *Norm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.norms[field]
}

// SetNorm installs n as field's norm table, used when flushing a newly
// computed norm (fresh segment) or after merging.
func (r *SegmentReader) SetNorm(field string, n *Norm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.norms[field] = n
}

// CloneNormForWrite returns a writable copy of n: a new dirty Norm with its
// own copy of n's byte buffer, recording n as its original. n itself is
// never reused in place, whatever its reference count.
func CloneNormForWrite(n *Norm) *Norm {
	clone := &Norm{field: n.field, dirty: true, original: n}
	clone.data = append([]byte(nil), n.data...)
	clone.closeOnLastRefCounter = newCloseOnLastRefCounter(nil)
	return clone
}

// Close releases this reader's reference to its shared CoreReaders block.
func (r *SegmentReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ldxerr.ErrAlreadyClosed
	}
	r.closed = true
	return r.core.decRef()
}
