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

// EventKind names a point in the writer's lifecycle an EventHandler may
// observe. Grounded on bluge/index/event.go's event-callback hook.
type EventKind int

const (
	EventKindFlushStart EventKind = iota
	EventKindFlushEnd
	EventKindMergeStart
	EventKindMergeEnd
	EventKindCommitEnd
)

// Event describes one lifecycle occurrence.
type Event struct {
	Kind     EventKind
	Segments []*SegmentDescriptor
	Err      error
}

// EventHandler is an optional observer a Config may register to receive
// lifecycle events, used by callers that want to drive their own metrics
// or logging independent of the Stats counters.
type EventHandler func(Event)
