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
	"fmt"

	"github.com/gofrs/uuid"
)

// fieldNormGen tracks the three-valued norm generation encoding for a
// single field, mirroring the deletion generation encoding: -1 means the
// field has never had its norms rewritten, 0 means a legacy layout must be
// probed for, >=1 names the generation of the current norms file.
type fieldNormGen struct {
	field      string
	generation int64
}

// SegmentDescriptor is the immutable-identity, mutable-generation metadata
// record for one on-disk segment. It never contains posting data itself;
// it names the files that do.
type SegmentDescriptor struct {
	name    string
	docCount int

	// delGen follows the three-valued encoding: -1 = never had deletes,
	// 0 = legacy/must-probe, >=1 = current live-docs file generation.
	delGen          int64
	nextWriteDelGen int64
	delCount        int

	normGens []fieldNormGen

	isCompoundFile bool
	hasSingleNormFile bool
	hasPositions      bool
	hasVectors        bool

	diagnostics map[string]string
	sessionID   string

	// docStoreOffset, when >= 0, means this segment's stored-fields and
	// vectors files are not its own: they live in a file set shared with
	// other segments, named docStoreSegment, at this segment's doc offset
	// into that shared set. -1 means private (unshared) doc stores.
	docStoreOffset         int
	docStoreSegment        string
	docStoreIsCompoundFile bool
}

// NewSegmentDescriptor creates a descriptor for a freshly flushed segment,
// which by definition has no deletions and no norm rewrites yet.
func NewSegmentDescriptor(name string, docCount int) *SegmentDescriptor {
	id, err := uuid.NewV4()
	sessionID := ""
	if err == nil {
		sessionID = id.String()
	}
	return &SegmentDescriptor{
		name:              name,
		docCount:          docCount,
		delGen:            -1,
		nextWriteDelGen:   1,
		delCount:          0,
		hasSingleNormFile: true,
		diagnostics:       map[string]string{"session-id": sessionID},
		sessionID:         sessionID,
		docStoreOffset:    -1,
	}
}

// DocStoreOffset returns the doc offset into a shared doc-store file set,
// or -1 if this segment's stored fields and vectors are private.
func (d *SegmentDescriptor) DocStoreOffset() int { return d.docStoreOffset }

// DocStoreSegment returns the name of the segment whose files this
// segment's doc store is shared with, when DocStoreOffset() != -1.
func (d *SegmentDescriptor) DocStoreSegment() string { return d.docStoreSegment }

// DocStoreIsCompoundFile reports whether the shared doc-store file set is
// itself bundled as a compound file.
func (d *SegmentDescriptor) DocStoreIsCompoundFile() bool { return d.docStoreIsCompoundFile }

// SetDocStore marks this segment as sharing its stored-fields and vectors
// files with another segment's doc-store file set, grounded on
// SegmentInfo::setDocStore: callers use this when multiple segments were
// flushed from documents buffered in the same indexing round and so share
// one underlying fields/vectors file rather than duplicating it per segment.
func (d *SegmentDescriptor) SetDocStore(offset int, segment string, isCompoundFile bool) {
	d.docStoreOffset = offset
	d.docStoreSegment = segment
	d.docStoreIsCompoundFile = isCompoundFile
}

func (d *SegmentDescriptor) Name() string { return d.name }
func (d *SegmentDescriptor) DocCount() int { return d.docCount }
func (d *SegmentDescriptor) DelCount() int { return d.delCount }
func (d *SegmentDescriptor) DelGen() int64 { return d.delGen }

// HasDeletions reports whether any commit has ever carried a live-docs
// file for this segment.
func (d *SegmentDescriptor) HasDeletions() bool {
	return d.delGen != -1
}

// AdvanceDelGen is called after successfully writing a new live-docs file:
// the generation we just wrote becomes current, and the next write target
// advances past it.
func (d *SegmentDescriptor) AdvanceDelGen() {
	d.delGen, d.nextWriteDelGen = d.nextWriteDelGen, d.nextWriteDelGen+1
}

// AdvanceNextWriteDelGenOnError is called after a failed attempt to write a
// new live-docs file, so the next attempt does not collide with the
// partially-written file left behind by the failure.
func (d *SegmentDescriptor) AdvanceNextWriteDelGenOnError() {
	d.nextWriteDelGen++
}

// SetDelCount updates the deleted document count, validating it against
// the segment's total doc count.
func (d *SegmentDescriptor) SetDelCount(delCount int) error {
	if delCount < 0 || delCount > d.docCount {
		return fmt.Errorf("invalid delCount=%d (docCount=%d)", delCount, d.docCount)
	}
	d.delCount = delCount
	return nil
}

// NormGeneration returns the current norm-file generation for field, or -1
// if that field's norms have never been rewritten.
func (d *SegmentDescriptor) NormGeneration(field string) int64 {
	for _, g := range d.normGens {
		if g.field == field {
			return g.generation
		}
	}
	return -1
}

// SetNormGeneration records a new norm-file generation for field.
func (d *SegmentDescriptor) SetNormGeneration(field string, generation int64) {
	for i, g := range d.normGens {
		if g.field == field {
			d.normGens[i].generation = generation
			return
		}
	}
	d.normGens = append(d.normGens, fieldNormGen{field: field, generation: generation})
}

// Clone returns an independent copy safe to mutate without affecting the
// SegmentGraph this descriptor currently belongs to.
func (d *SegmentDescriptor) Clone() *SegmentDescriptor {
	clone := *d
	clone.normGens = append([]fieldNormGen(nil), d.normGens...)
	clone.diagnostics = make(map[string]string, len(d.diagnostics))
	for k, v := range d.diagnostics {
		clone.diagnostics[k] = v
	}
	return &clone
}

// Files returns every file name this segment's current generation uses,
// including the live-docs file and per-field norm files if present.
func (d *SegmentDescriptor) Files() []string {
	// Stored-fields and vectors files are derived from the doc-store
	// segment's name when this segment shares a doc store, and from this
	// segment's own name otherwise.
	docStoreName := d.name
	if d.docStoreOffset != -1 {
		docStoreName = d.docStoreSegment
	}

	files := []string{
		SegmentFileName(d.name, ExtFieldInfos, -1),
		SegmentFileName(docStoreName, ExtStoredFields, -1),
		SegmentFileName(docStoreName, ExtStoredIndex, -1),
		SegmentFileName(d.name, ExtTermDict, -1),
		SegmentFileName(d.name, ExtTermIndex, -1),
		SegmentFileName(d.name, ExtFrequencies, -1),
	}
	if d.hasPositions {
		files = append(files, SegmentFileName(d.name, ExtPositions, -1))
	}
	if d.hasVectors {
		files = append(files,
			SegmentFileName(docStoreName, ExtVectorsIndex, -1),
			SegmentFileName(docStoreName, ExtVectorsData, -1))
	}
	if d.HasDeletions() {
		files = append(files, SegmentFileName(d.name, ExtLiveDocs, d.delGen))
	}
	if d.hasSingleNormFile {
		// a single shared norms file, generation tracked under the empty
		// field key by convention
		if gen := d.NormGeneration(""); gen >= 0 {
			files = append(files, SegmentFileName(d.name, ExtNorms, gen))
		}
	} else {
		for _, g := range d.normGens {
			files = append(files, SegmentFileName(d.name, ExtNorms+"."+g.field, g.generation))
		}
	}
	return files
}

func (d *SegmentDescriptor) String() string {
	s := fmt.Sprintf("%s(docs=%d dels=%d)", d.name, d.docCount, d.delCount)
	if d.HasDeletions() {
		s = fmt.Sprintf("%s:delGen=%d", s, d.delGen)
	}
	return s
}
