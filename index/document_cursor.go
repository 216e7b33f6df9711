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

import "github.com/RoaringBitmap/roaring"

// bitmapIterator is the narrow slice of roaring.Bitmap's iterator surface
// these cursors need, named locally so the exact iterator type the
// installed roaring version returns (IntIterable vs IntPeekable across
// versions) never leaks into this file's declarations.
type bitmapIterator interface {
	HasNext() bool
	Next() uint32
}

// DocumentCursor is the uniform way every postings source — a term's
// postings list, a match-all scan, a merge's input enumerator — is walked:
// advance, then read the doc id and frequency at the current position.
// Cursors are single-use and not safe for concurrent use.
type DocumentCursor interface {
	// Next advances the cursor and reports whether a document is
	// available. It must be called before the first read.
	Next() bool

	// DocID returns the current document's local id within its segment.
	DocID() int

	// Frequency returns the current document's term frequency. Cursors
	// that don't track frequency (e.g. a pure existence scan) return 1.
	Frequency() int
}

// TermDictionary is the minimal read surface BufferedDeletes needs to
// resolve a delete-by-term into concrete doc ids; concrete term-dictionary
// formats are an external collaborator per the posting-list-encoding
// Non-goal, so only this narrow lookup is specified here.
type TermDictionary interface {
	PostingsForTerm(field, text string) (DocumentCursor, error)
}

// matchAllCursor enumerates every live document in a segment in ascending
// doc-id order, mirroring the teacher's unadornedPostingsIteratorBitmap
// for the case where there is no term restriction at all — used for
// full-segment scans such as the field cache's per-document pass.
type matchAllCursor struct {
	it      bitmapIterator
	current int
}

// NewMatchAllCursor returns a cursor over every doc id set in live (the
// segment's live-docs bitmap, or docCount consecutive ids if the segment
// has no deletions at all).
func NewMatchAllCursor(live *roaring.Bitmap) DocumentCursor {
	return &matchAllCursor{it: live.Iterator()}
}

func (c *matchAllCursor) Next() bool {
	if !c.it.HasNext() {
		return false
	}
	c.current = int(c.it.Next())
	return true
}

func (c *matchAllCursor) DocID() int     { return c.current }
func (c *matchAllCursor) Frequency() int { return 1 }

// bitmapTermCursor enumerates the doc ids carrying one term, with an
// explicit per-doc frequency table (nil means every occurrence had
// frequency 1, the common case for a presence-only postings list).
type bitmapTermCursor struct {
	it   bitmapIterator
	freq map[int]int
	cur  int
}

// NewBitmapTermCursor returns a cursor over the doc ids set in postings,
// each reported with freq[doc] (or 1 if freq is nil).
func NewBitmapTermCursor(postings *roaring.Bitmap, freq map[int]int) DocumentCursor {
	return &bitmapTermCursor{it: postings.Iterator(), freq: freq}
}

func (c *bitmapTermCursor) Next() bool {
	if !c.it.HasNext() {
		return false
	}
	c.cur = int(c.it.Next())
	return true
}

func (c *bitmapTermCursor) DocID() int { return c.cur }

func (c *bitmapTermCursor) Frequency() int {
	if c.freq == nil {
		return 1
	}
	if f, ok := c.freq[c.cur]; ok {
		return f
	}
	return 1
}
