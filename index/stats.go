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

import "go.uber.org/atomic"

// Stats exposes writer-activity counters for operational monitoring,
// grounded on bluge/index/stats.go's flat atomic counter struct.
type Stats struct {
	DocumentsAdded   atomic.Int64
	DocumentsDeleted atomic.Int64
	DocumentsUpdated atomic.Int64

	FlushesStarted   atomic.Int64
	FlushesCompleted atomic.Int64

	MergesStarted   atomic.Int64
	MergesCompleted atomic.Int64
	MergesAborted   atomic.Int64

	CommitsCompleted atomic.Int64
	Rollbacks        atomic.Int64
}

// NewStats returns a zeroed Stats block.
func NewStats() *Stats { return &Stats{} }

// Snapshot is a point-in-time copy of Stats safe to hand to a caller
// without exposing the live atomics.
type Snapshot struct {
	DocumentsAdded, DocumentsDeleted, DocumentsUpdated int64
	FlushesStarted, FlushesCompleted                   int64
	MergesStarted, MergesCompleted, MergesAborted      int64
	CommitsCompleted, Rollbacks                        int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		DocumentsAdded:   s.DocumentsAdded.Load(),
		DocumentsDeleted: s.DocumentsDeleted.Load(),
		DocumentsUpdated: s.DocumentsUpdated.Load(),
		FlushesStarted:   s.FlushesStarted.Load(),
		FlushesCompleted: s.FlushesCompleted.Load(),
		MergesStarted:    s.MergesStarted.Load(),
		MergesCompleted:  s.MergesCompleted.Load(),
		MergesAborted:    s.MergesAborted.Load(),
		CommitsCompleted: s.CommitsCompleted.Load(),
		Rollbacks:        s.Rollbacks.Load(),
	}
}
