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

import "sort"

// MergeTrigger names the event that caused a merge search, the way
// edmwagner-golucene's core/index/merge.go names MERGE_TRIGGER_SEGMENT_FLUSH
// and MERGE_TRIGGER_FULL_FLUSH.
type MergeTrigger int

const (
	MergeTriggerSegmentFlush MergeTrigger = iota
	MergeTriggerFullFlush
	MergeTriggerExplicit
)

// OneMerge describes a single primitive merge operation: which segments to
// fuse into one new segment.
type OneMerge struct {
	Segments []*SegmentDescriptor
	aborted  bool
}

// CheckAbort lets a long-running merge poll whether Abort has been called.
// The Writer does not call Abort itself on Close or Rollback.
func (m *OneMerge) CheckAbort() bool { return m.aborted }

// Abort marks the merge as cancelled; Writer.executeMerge checks this
// between per-term merge steps and stops with ldxerr.ErrMergeAborted.
func (m *OneMerge) Abort() { m.aborted = true }

// MergeSpecification is a batch of merges a MergePolicy wants run; when
// more than one is returned, a ConcurrentMergeScheduler may run them in
// parallel while a SerialMergeScheduler always runs them one at a time.
type MergeSpecification struct {
	Merges []*OneMerge
}

// MergePolicy decides which segments should be merged and when.
type MergePolicy interface {
	// FindMerges is called after a flush or merge completion to look for
	// newly-necessary merges.
	FindMerges(trigger MergeTrigger, segments []*SegmentDescriptor) *MergeSpecification

	// FindForcedMerges is called by an explicit ForceMerge(maxSegments)
	// request.
	FindForcedMerges(segments []*SegmentDescriptor, maxSegmentCount int) *MergeSpecification
}

// MergeScheduler executes the merges a MergePolicy selects.
type MergeScheduler interface {
	// Schedule runs spec's merges using execute as the per-merge worker,
	// returning once all of them (or none, for an empty spec) have been
	// handed off or completed, depending on the scheduler's concurrency
	// model.
	Schedule(spec *MergeSpecification, execute func(*OneMerge) error) error
	Close() error
}

// TieredMergePolicy merges segments of roughly similar size, bounded by a
// maximum number of segments per tier and a maximum number of segments
// merged at once. Grounded on edmwagner-golucene's TieredMergePolicy doc
// comment and on bluge/index/merge.go's planSegmentsToMerge.
type TieredMergePolicy struct {
	SegmentsPerTier int
	MaxMergeAtOnce  int
	FloorDocCount   int
}

// NewTieredMergePolicy returns a policy with sane defaults matching the
// teacher's bluge config defaults.
func NewTieredMergePolicy() *TieredMergePolicy {
	return &TieredMergePolicy{SegmentsPerTier: 10, MaxMergeAtOnce: 10, FloorDocCount: 1000}
}

func (p *TieredMergePolicy) FindMerges(trigger MergeTrigger, segments []*SegmentDescriptor) *MergeSpecification {
	if len(segments) <= p.SegmentsPerTier {
		return nil
	}
	sorted := append([]*SegmentDescriptor(nil), segments...)
	sort.Slice(sorted, func(i, j int) bool {
		return liveSize(sorted[i]) < liveSize(sorted[j])
	})

	excess := len(sorted) - p.SegmentsPerTier
	if excess > p.MaxMergeAtOnce {
		excess = p.MaxMergeAtOnce
	}
	if excess < 2 {
		return nil
	}
	return &MergeSpecification{Merges: []*OneMerge{{Segments: sorted[:excess]}}}
}

func (p *TieredMergePolicy) FindForcedMerges(segments []*SegmentDescriptor, maxSegmentCount int) *MergeSpecification {
	if len(segments) <= maxSegmentCount {
		return nil
	}
	sorted := append([]*SegmentDescriptor(nil), segments...)
	sort.Slice(sorted, func(i, j int) bool {
		return liveSize(sorted[i]) < liveSize(sorted[j])
	})
	var merges []*OneMerge
	for len(sorted) > maxSegmentCount {
		batch := p.MaxMergeAtOnce
		if batch > len(sorted) {
			batch = len(sorted)
		}
		if len(sorted)-batch < maxSegmentCount-1 && maxSegmentCount > 1 {
			batch = len(sorted) - (maxSegmentCount - 1)
		}
		if batch < 2 {
			break
		}
		merges = append(merges, &OneMerge{Segments: sorted[:batch]})
		sorted = sorted[batch:]
	}
	if len(merges) == 0 {
		return nil
	}
	return &MergeSpecification{Merges: merges}
}

func liveSize(d *SegmentDescriptor) int {
	return d.DocCount() - d.DelCount()
}

// SerialMergeScheduler runs each merge sequentially on the calling
// goroutine. Grounded on edmwagner-golucene's SerialMergeScheduler.
type SerialMergeScheduler struct{}

func NewSerialMergeScheduler() *SerialMergeScheduler { return &SerialMergeScheduler{} }

func (s *SerialMergeScheduler) Schedule(spec *MergeSpecification, execute func(*OneMerge) error) error {
	if spec == nil {
		return nil
	}
	for _, merge := range spec.Merges {
		if err := execute(merge); err != nil {
			return err
		}
	}
	return nil
}

func (s *SerialMergeScheduler) Close() error { return nil }

// ConcurrentMergeScheduler runs each of a spec's merges on its own
// goroutine, bounded by MaxConcurrent. Grounded on edmwagner-golucene's
// ConcurrentMergeScheduler doc comment (throttle incoming merges once the
// concurrency budget is exhausted).
type ConcurrentMergeScheduler struct {
	MaxConcurrent int
	sem           chan struct{}
}

func NewConcurrentMergeScheduler(maxConcurrent int) *ConcurrentMergeScheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ConcurrentMergeScheduler{MaxConcurrent: maxConcurrent, sem: make(chan struct{}, maxConcurrent)}
}

func (s *ConcurrentMergeScheduler) Schedule(spec *MergeSpecification, execute func(*OneMerge) error) error {
	if spec == nil {
		return nil
	}
	errs := make(chan error, len(spec.Merges))
	for _, merge := range spec.Merges {
		merge := merge
		s.sem <- struct{}{}
		go func() {
			defer func() { <-s.sem }()
			errs <- execute(merge)
		}()
	}
	var firstErr error
	for range spec.Merges {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *ConcurrentMergeScheduler) Close() error { return nil }
