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

// Package query provides the minimal Query implementations the indexing
// core's delete-by-query path and tests exercise. Full query trees and
// scorers are out of scope; this package specifies only the narrow
// MatchesInSegment boundary the core calls during apply-deletes.
package query

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/nakama-index/ldx/index"
)

// MatchAll matches every live document in a segment.
type MatchAll struct{}

// MatchesInSegment implements index.Query.
func (MatchAll) MatchesInSegment(reader *index.SegmentReader) (*roaring.Bitmap, error) {
	return reader.LiveDocsCopy(), nil
}

// Term matches every document carrying one exact term in one field.
type Term struct {
	Field string
	Text  string
}

// MatchesInSegment implements index.Query.
func (t Term) MatchesInSegment(reader *index.SegmentReader) (*roaring.Bitmap, error) {
	cursor, err := reader.Dictionary().PostingsForTerm(t.Field, t.Text)
	if err != nil {
		return nil, err
	}
	out := roaring.New()
	if cursor == nil {
		return out, nil
	}
	for cursor.Next() {
		out.Add(uint32(cursor.DocID()))
	}
	return out, nil
}
