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

// FlushControl decides when the in-memory segment being built should be
// flushed to disk, by whichever of three independent triggers fires
// first: a maximum buffered document count, an estimated RAM ceiling, or
// a pending-delete-count budget. Grounded on the MaxEntries/EntryCount
// threshold pattern in heroiclabs-nakama/server/storage_index.go,
// generalized to the three-way trigger spec §4.10 names.
type FlushControl struct {
	maxBufferedDocs int
	maxRAMBytes     int64
	maxPendingDeletes int

	bufferedDocs  atomic.Int64
	ramBytesUsed  atomic.Int64
	pendingDeletes atomic.Int64
}

// NewFlushControl returns a FlushControl with the given thresholds. A
// threshold of 0 disables that trigger.
func NewFlushControl(maxBufferedDocs int, maxRAMBytes int64, maxPendingDeletes int) *FlushControl {
	return &FlushControl{
		maxBufferedDocs:   maxBufferedDocs,
		maxRAMBytes:       maxRAMBytes,
		maxPendingDeletes: maxPendingDeletes,
	}
}

// AddDocument records one more buffered document of approximately
// ramDelta bytes, returning whether a flush should now be triggered.
func (fc *FlushControl) AddDocument(ramDelta int64) bool {
	fc.bufferedDocs.Inc()
	fc.ramBytesUsed.Add(ramDelta)
	return fc.shouldFlush()
}

// AddPendingDelete records one more pending delete, returning whether a
// flush should now be triggered.
func (fc *FlushControl) AddPendingDelete() bool {
	fc.pendingDeletes.Inc()
	return fc.shouldFlush()
}

func (fc *FlushControl) shouldFlush() bool {
	if fc.maxBufferedDocs > 0 && fc.bufferedDocs.Load() >= int64(fc.maxBufferedDocs) {
		return true
	}
	if fc.maxRAMBytes > 0 && fc.ramBytesUsed.Load() >= fc.maxRAMBytes {
		return true
	}
	if fc.maxPendingDeletes > 0 && fc.pendingDeletes.Load() >= int64(fc.maxPendingDeletes) {
		return true
	}
	return false
}

// Reset clears all counters, called immediately after a flush completes.
func (fc *FlushControl) Reset() {
	fc.bufferedDocs.Store(0)
	fc.ramBytesUsed.Store(0)
	fc.pendingDeletes.Store(0)
}

// BufferedDocs reports the current buffered document count.
func (fc *FlushControl) BufferedDocs() int64 { return fc.bufferedDocs.Load() }

// RAMBytesUsed reports the current estimated RAM usage.
func (fc *FlushControl) RAMBytesUsed() int64 { return fc.ramBytesUsed.Load() }
