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
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/require"
)

func TestMatchAllCursorWalksInAscendingOrder(t *testing.T) {
	bm := roaring.New()
	bm.Add(5)
	bm.Add(1)
	bm.Add(3)

	cur := NewMatchAllCursor(bm)
	var seen []int
	for cur.Next() {
		seen = append(seen, cur.DocID())
		require.Equal(t, 1, cur.Frequency())
	}
	require.Equal(t, []int{1, 3, 5}, seen)
}

func TestBitmapTermCursorReportsFrequency(t *testing.T) {
	postings := roaring.New()
	postings.Add(2)
	postings.Add(4)
	freq := map[int]int{2: 3, 4: 1}

	cur := NewBitmapTermCursor(postings, freq)
	require.True(t, cur.Next())
	require.Equal(t, 2, cur.DocID())
	require.Equal(t, 3, cur.Frequency())

	require.True(t, cur.Next())
	require.Equal(t, 4, cur.DocID())
	require.Equal(t, 1, cur.Frequency())

	require.False(t, cur.Next())
}

func TestBitmapTermCursorDefaultsFrequencyToOneWithoutTable(t *testing.T) {
	postings := roaring.New()
	postings.Add(7)

	cur := NewBitmapTermCursor(postings, nil)
	require.True(t, cur.Next())
	require.Equal(t, 1, cur.Frequency())
}
