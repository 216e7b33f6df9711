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
	"strconv"
	"strings"
)

// File extensions for the pieces of an on-disk segment, named per the
// external interface registry.
const (
	ExtFieldInfos    = ".fnm"
	ExtStoredFields  = ".fdt"
	ExtStoredIndex   = ".fdx"
	ExtTermDict      = ".tim"
	ExtTermIndex     = ".tip"
	ExtFrequencies   = ".doc"
	ExtPositions     = ".pos"
	ExtNorms         = ".nrm"
	ExtLiveDocs      = ".liv"
	ExtVectorsIndex  = ".tvx"
	ExtVectorsData   = ".tvd"
	ExtCompound      = ".cfs"
	ExtCompoundEntry = ".cfe"

	// SegmentsFilePrefix names the commit (SegmentGraph) file, suffixed
	// with a radix-36 generation number: "segments_a", "segments_b", ...
	SegmentsFilePrefix = "segments_"

	// SegmentsFileFormatVersion is written as the first four bytes of
	// every segments file and must match on read.
	SegmentsFileFormatVersion uint32 = 1
)

// SegmentFileName returns the file name for the given segment, extension,
// and file generation. A generation of -1 selects the un-suffixed base
// name (used for files that are never re-written, like field infos and
// term dictionaries); generation >= 0 appends "_<radix36(generation)>"
// before the extension, the convention used for deletion and norm files
// that are rewritten in place across commits.
func SegmentFileName(segmentName, ext string, generation int64) string {
	if generation < 0 {
		return segmentName + ext
	}
	return fmt.Sprintf("%s_%s%s", segmentName, formatGeneration(generation), ext)
}

// SegmentsFileName returns the commit file name for the given graph
// generation, e.g. generation 0 -> "segments_0", generation 37 -> "segments_11".
func SegmentsFileName(generation int64) string {
	return SegmentsFilePrefix + formatGeneration(generation)
}

// formatGeneration encodes generation as lowercase base36, matching the
// compact generation suffixes used throughout the file-naming scheme.
func formatGeneration(generation int64) string {
	return strconv.FormatInt(generation, 36)
}

// ParseGeneration decodes a base36 generation suffix back to an int64. It
// returns false if s is not a valid base36 non-negative integer.
func ParseGeneration(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 36, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// itemKindOf classifies a file name as a segment file or a segments_N
// commit file, the split every Directory implementation uses to apply
// different retention policy to each.
func itemKindOf(name string) ItemKind {
	if strings.HasPrefix(name, SegmentsFilePrefix) {
		return ItemKindSnapshot
	}
	return ItemKindSegment
}

// NextSegmentName derives the next segment's base name from a monotonic
// counter, using the same base36 compact encoding as generations.
func NextSegmentName(counter int64) string {
	return "_" + formatGeneration(counter)
}
