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
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/nakama-index/ldx/ldxerr"
)

// SegmentGraph is the unit of commit: an ordered list of segment
// descriptors plus the bookkeeping needed to name the next commit file and
// the next segment. It carries no open file handles or readers of its own
// — those live in SegmentReader/ReaderPool, which are built against a
// SegmentGraph's descriptors but are not part of it.
type SegmentGraph struct {
	segments []*SegmentDescriptor

	// generation is this graph's own commit generation: it names the
	// "segments_N" file this graph was (or will be) written to.
	generation int64

	// segmentNameCounter hands out unique per-segment name suffixes; it
	// only ever increases, including across merges and rollbacks, so
	// segment names are never reused within a directory's lifetime.
	segmentNameCounter int64

	formatVersion uint32
	userData      map[string]string
}

// NewSegmentGraph returns an empty graph at generation 0.
func NewSegmentGraph() *SegmentGraph {
	return &SegmentGraph{
		formatVersion: SegmentsFileFormatVersion,
		userData:      map[string]string{},
	}
}

// Segments returns the graph's descriptors in commit order. The returned
// slice must not be mutated by the caller.
func (g *SegmentGraph) Segments() []*SegmentDescriptor { return g.segments }

func (g *SegmentGraph) Generation() int64 { return g.generation }

// Clone returns a deep-enough copy: the descriptor slice is copied (so
// Add/Remove on the clone don't affect the original) but descriptors
// themselves are shared until individually cloned by a mutator.
func (g *SegmentGraph) Clone() *SegmentGraph {
	clone := &SegmentGraph{
		segments:           append([]*SegmentDescriptor(nil), g.segments...),
		generation:         g.generation,
		segmentNameCounter: g.segmentNameCounter,
		formatVersion:      g.formatVersion,
		userData:           make(map[string]string, len(g.userData)),
	}
	for k, v := range g.userData {
		clone.userData[k] = v
	}
	return clone
}

// NewSegmentName hands out the next unique segment base name.
func (g *SegmentGraph) NewSegmentName() string {
	name := NextSegmentName(g.segmentNameCounter)
	g.segmentNameCounter++
	return name
}

// Add appends a newly flushed or merged segment to the graph.
func (g *SegmentGraph) Add(desc *SegmentDescriptor) {
	g.segments = append(g.segments, desc)
}

// Replace atomically swaps a set of input segments for a single merged
// output segment, preserving the relative order of whatever remains.
func (g *SegmentGraph) Replace(inputs []*SegmentDescriptor, output *SegmentDescriptor) {
	inputSet := make(map[*SegmentDescriptor]bool, len(inputs))
	for _, s := range inputs {
		inputSet[s] = true
	}
	replaced := false
	next := make([]*SegmentDescriptor, 0, len(g.segments))
	for _, s := range g.segments {
		if inputSet[s] {
			if !replaced {
				next = append(next, output)
				replaced = true
			}
			continue
		}
		next = append(next, s)
	}
	if !replaced {
		next = append(next, output)
	}
	g.segments = next
}

// TotalLiveDocCount sums live (non-deleted) documents across all segments.
func (g *SegmentGraph) TotalLiveDocCount() int {
	total := 0
	for _, s := range g.segments {
		total += s.DocCount() - s.DelCount()
	}
	return total
}

// WriteTo serializes the graph as a new "segments_N" commit file: a format
// version, the graph generation and segment-name counter, the segment
// count, then each descriptor's name/docCount/delGen/delCount, then a
// trailing CRC32 of everything written before it. Per-field norm
// generations are not written, so a graph read back has none recorded.
func (g *SegmentGraph) WriteTo(w io.Writer) (int64, error) {
	chw := &countHashWriter{w: bufio.NewWriter(w), crc: crc32.NewIEEE()}
	var be [8]byte

	putU32 := func(v uint32) error {
		binary.BigEndian.PutUint32(be[:4], v)
		_, err := chw.Write(be[:4])
		return err
	}
	putI64 := func(v int64) error {
		binary.BigEndian.PutUint64(be[:], uint64(v))
		_, err := chw.Write(be[:])
		return err
	}
	putStr := func(s string) error {
		if err := putU32(uint32(len(s))); err != nil {
			return err
		}
		_, err := chw.Write([]byte(s))
		return err
	}

	if err := putU32(g.formatVersion); err != nil {
		return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	if err := putI64(g.generation); err != nil {
		return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	if err := putI64(g.segmentNameCounter); err != nil {
		return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	if err := putU32(uint32(len(g.segments))); err != nil {
		return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	for _, s := range g.segments {
		if err := putStr(s.name); err != nil {
			return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
		}
		if err := putI64(int64(s.docCount)); err != nil {
			return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
		}
		if err := putI64(s.delGen); err != nil {
			return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
		}
		if err := putI64(int64(s.delCount)); err != nil {
			return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
		}
	}
	if err := chw.flushAndWriteChecksum(); err != nil {
		return chw.count, ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	g.generation++
	return chw.count, nil
}

// ReadSegmentGraphFrom parses a "segments_N" file previously written by WriteTo,
// verifying its trailing checksum.
func ReadSegmentGraphFrom(r io.Reader) (*SegmentGraph, error) {
	chr := &countHashReader{r: r, crc: crc32.NewIEEE()}
	var be [8]byte

	getU32 := func() (uint32, error) {
		if _, err := io.ReadFull(chr, be[:4]); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint32(be[:4]), nil
	}
	getI64 := func() (int64, error) {
		if _, err := io.ReadFull(chr, be[:]); err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(be[:])), nil
	}
	getStr := func() (string, error) {
		n, err := getU32()
		if err != nil {
			return "", err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(chr, buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}

	version, err := getU32()
	if err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
	}
	if version != SegmentsFileFormatVersion {
		return nil, fmt.Errorf("%w: unsupported segments file format version %d", ldxerr.ErrCorruption, version)
	}
	g := NewSegmentGraph()
	g.formatVersion = version
	if g.generation, err = getI64(); err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
	}
	if g.segmentNameCounter, err = getI64(); err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
	}
	count, err := getU32()
	if err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := getStr()
		if err != nil {
			return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
		}
		docCount, err := getI64()
		if err != nil {
			return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
		}
		delGen, err := getI64()
		if err != nil {
			return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
		}
		delCount, err := getI64()
		if err != nil {
			return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
		}
		desc := NewSegmentDescriptor(name, int(docCount))
		desc.delGen = delGen
		if delGen >= 0 {
			desc.nextWriteDelGen = delGen + 1
		}
		if err := desc.SetDelCount(int(delCount)); err != nil {
			return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
		}
		g.segments = append(g.segments, desc)
	}
	if err := chr.verifyChecksum(); err != nil {
		return nil, ldxerr.Wrap(ldxerr.ErrCorruption, err)
	}
	return g, nil
}
