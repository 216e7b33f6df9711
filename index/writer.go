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
	"sync"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/nakama-index/ldx/ldxerr"
)

// Writer is the top-level indexing supervisor: it sequences document
// adds/updates/deletes, flushes the in-memory segment being built,
// schedules merges, and commits or rolls back the persisted SegmentGraph.
// Grounded on bluge/index/writer.go's Writer and introducer.go's
// introducerLoop, with the introducer goroutine replaced by one mutex:
// every operation that reads or mutates the published graph takes rootMu,
// so commit-affecting operations are serialized on it and run on the
// caller's goroutine.
type Writer struct {
	cfg Config
	dir Directory
	log *zap.Logger

	codec    SegmentCodec
	analyzer Analyzer

	stats         *Stats
	flushControl  *FlushControl
	bufferedDeletes *BufferedDeletes
	readerPool    *ReaderPool
	fileDeleter   *fileDeleter

	// rootMu guards graph and pending, the two pieces of state every
	// public method reads or mutates. It plays the role the teacher's
	// introducerLoop plays via channels; a straight mutex is used here
	// instead of an actor loop because the core's operations (unlike
	// bluge's, which juggles compound-file assembly and on-disk
	// compaction) are short; the directory I/O done while it is held is
	// Commit's write and sync of the segments file.
	rootMu sync.Mutex
	graph  *Graph
	pending *pendingSegment
	closed  bool
	poisoned error

	nextDocID atomic.Int64
}

// Graph pairs a SegmentGraph with the Commit bookkeeping the
// DeletionPolicy needs (generation, file list, deleted flag).
type Graph struct {
	*SegmentGraph
	deleted bool
}

func (g *Graph) Files() []string {
	var files []string
	for _, s := range g.Segments() {
		files = append(files, s.Files()...)
	}
	files = append(files, SegmentsFileName(g.Generation()))
	return files
}
func (g *Graph) Delete()       { g.deleted = true }
func (g *Graph) IsDeleted() bool { return g.deleted }

// pendingSegment is the in-memory segment currently being built: buffered
// documents plus the deletes issued against them before they were ever
// flushed.
type pendingSegment struct {
	docs    []*PendingDocument
	deletes *SegmentDeletes
}

func newPendingSegment() *pendingSegment {
	return &pendingSegment{deletes: NewSegmentDeletes()}
}

// OpenWriter opens (creating if necessary) a Writer over the directory
// cfg.DirectoryFunc constructs, using codec to build and read segments and
// analyzer to tokenize fields. Grounded on bluge's OpenWriter.
func OpenWriter(cfg Config, codec SegmentCodec, analyzer Analyzer) (*Writer, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	dir := cfg.DirectoryFunc()
	if err := dir.Setup(false); err != nil {
		return nil, err
	}
	if err := dir.Lock(); err != nil {
		return nil, err
	}

	graph, err := loadLatestGraph(dir)
	if err != nil {
		dir.Unlock()
		return nil, err
	}

	w := &Writer{
		cfg:             cfg,
		dir:             dir,
		log:             cfg.Logger,
		codec:           codec,
		analyzer:        analyzer,
		stats:           NewStats(),
		flushControl:    NewFlushControl(cfg.MaxBufferedDocs, cfg.MaxBufferedBytes, cfg.MaxPendingDeletes),
		bufferedDeletes: NewBufferedDeletes(),
		graph:           &Graph{SegmentGraph: graph},
		pending:         newPendingSegment(),
		fileDeleter:     newFileDeleter(dir, cfg.Logger),
	}
	w.readerPool = NewReaderPool(dir, cfg.Logger, w.termDictionaryFor)
	w.fileDeleter.checkpoint(w.graph.SegmentGraph)
	return w, nil
}

func (w *Writer) termDictionaryFor(_ Directory, desc *SegmentDescriptor) (TermDictionary, error) {
	return w.codec.Dictionary(desc.Name())
}

func loadLatestGraph(dir Directory) (*SegmentGraph, error) {
	names, err := dir.List(ItemKindSnapshot)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return NewSegmentGraph(), nil
	}
	var best string
	var bestGen int64 = -1
	for _, n := range names {
		gen, ok := ParseGeneration(n[len(SegmentsFilePrefix):])
		if ok && gen > bestGen {
			bestGen, best = gen, n
		}
	}
	data, err := dir.Load(best)
	if err != nil {
		return nil, err
	}
	return ReadSegmentGraphFrom(byteReader{data})
}

// byteReader adapts a []byte to io.Reader without pulling in bytes.Reader
// just for this one call site's needs.
type byteReader struct{ b []byte }

func (r byteReader) Read(p []byte) (int, error) {
	n := copy(p, r.b)
	if n == 0 && len(p) > 0 {
		return 0, fmt.Errorf("EOF")
	}
	return n, nil
}

// AddDocument buffers doc into the segment currently being built, flushing
// first if FlushControl says the buffer is full.
func (w *Writer) AddDocument(fields map[string]string, stored map[string][]byte) error {
	w.rootMu.Lock()
	defer w.rootMu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}

	docID := int(w.nextDocID.Inc()) - 1
	w.pending.docs = append(w.pending.docs, &PendingDocument{DocID: docID, Fields: fields, Stored: stored})
	w.stats.DocumentsAdded.Inc()

	ramDelta := estimateRAMBytes(fields, stored)
	if w.flushControl.AddDocument(int64(ramDelta)) {
		return w.flushLocked()
	}
	return nil
}

// UpdateDocument deletes every existing document matching term, then adds
// the replacement: the spec's update-is-delete-then-add semantics.
func (w *Writer) UpdateDocument(t Term, fields map[string]string, stored map[string][]byte) error {
	w.rootMu.Lock()
	defer w.rootMu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	w.deleteByTermLocked(t)
	w.stats.DocumentsUpdated.Inc()

	docID := int(w.nextDocID.Inc()) - 1
	w.pending.docs = append(w.pending.docs, &PendingDocument{DocID: docID, Fields: fields, Stored: stored})
	ramDelta := estimateRAMBytes(fields, stored)
	if w.flushControl.AddDocument(int64(ramDelta)) {
		return w.flushLocked()
	}
	return nil
}

// DeleteDocuments deletes every document matching t, whether already
// flushed or still buffered in the pending segment.
func (w *Writer) DeleteDocuments(t Term) error {
	w.rootMu.Lock()
	defer w.rootMu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	w.deleteByTermLocked(t)
	w.stats.DocumentsDeleted.Inc()
	if w.flushControl.AddPendingDelete() {
		return w.flushLocked()
	}
	return nil
}

func (w *Writer) deleteByTermLocked(t Term) {
	docUpto := len(w.pending.docs)
	w.pending.deletes.AddTerm(t, docUpto)
	for _, seg := range w.graph.Segments() {
		w.bufferedDeletes.PushDeletes(seg, termOnlyDeletes(t, seg.DocCount()))
	}
}

func termOnlyDeletes(t Term, docUpto int) *SegmentDeletes {
	sd := NewSegmentDeletes()
	sd.AddTerm(t, docUpto)
	return sd
}

func (w *Writer) checkOpenLocked() error {
	if w.closed {
		return ldxerr.ErrAlreadyClosed
	}
	if w.poisoned != nil {
		return ldxerr.Wrap(ldxerr.ErrOutOfMemory, w.poisoned)
	}
	return nil
}

// estimateRAMBytes approximates the buffered-document RAM footprint used
// by FlushControl's RAM-ceiling trigger.
func estimateRAMBytes(fields map[string]string, stored map[string][]byte) int {
	n := 0
	for k, v := range fields {
		n += len(k) + len(v)
	}
	for k, v := range stored {
		n += len(k) + len(v)
	}
	return n
}

// flushLocked builds the pending in-memory segment into a real segment via
// the codec, publishes it into the graph, and resets pending/FlushControl.
// Must be called with rootMu held.
func (w *Writer) flushLocked() error {
	if len(w.pending.docs) == 0 {
		return nil
	}
	w.stats.FlushesStarted.Inc()
	w.fireEvent(EventKindFlushStart, nil, nil)

	desc, dict, stored, err := w.codec.Build(w.graph.SegmentGraph, w.pending.docs, w.analyzer)
	if err != nil {
		w.fireEvent(EventKindFlushEnd, nil, err)
		return ldxerr.Wrap(ldxerr.ErrIO, err)
	}
	_ = stored

	w.graph.Add(desc)
	if !w.pending.deletes.IsEmpty() {
		w.bufferedDeletes.PushDeletes(desc, w.pending.deletes)
	}

	w.pending = newPendingSegment()
	w.nextDocID.Store(0)
	w.flushControl.Reset()
	w.stats.FlushesCompleted.Inc()

	_, err = w.termDictionaryFor(w.dir, desc)
	_ = dict
	w.fireEvent(EventKindFlushEnd, []*SegmentDescriptor{desc}, err)
	return err
}

// fireEvent invokes cfg.EventHandler, if set, with the given lifecycle
// occurrence. Grounded on bluge/index/event.go's synchronous callback.
func (w *Writer) fireEvent(kind EventKind, segments []*SegmentDescriptor, err error) {
	if w.cfg.EventHandler == nil {
		return
	}
	w.cfg.EventHandler(Event{Kind: kind, Segments: segments, Err: err})
}

// Flush forces the current in-memory segment to be written out, even if
// FlushControl's thresholds haven't been reached.
func (w *Writer) Flush() error {
	w.rootMu.Lock()
	defer w.rootMu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	return w.flushLocked()
}

// Commit flushes any pending documents, persists the current SegmentGraph
// as a new "segments_N" file, syncs the directory, and, when a
// DeletionPolicy is configured, hands it the new commit. Only that one
// commit is passed; earlier commits are not tracked by the Writer.
func (w *Writer) Commit() error {
	w.rootMu.Lock()
	defer w.rootMu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	if err := w.flushLocked(); err != nil {
		return err
	}
	return w.commitLocked()
}

func (w *Writer) commitLocked() error {
	name := SegmentsFileName(w.graph.Generation())
	var buf bufWriter
	if _, err := w.graph.WriteTo(&buf); err != nil {
		return err
	}
	if err := w.dir.Persist(ItemKindSnapshot, name, buf.b, nil); err != nil {
		return err
	}
	if err := w.dir.Sync(ItemKindSnapshot); err != nil {
		return err
	}

	if w.cfg.DeletionPolicy != nil {
		w.fileDeleter.checkpoint(w.graph.SegmentGraph)
		w.cfg.DeletionPolicy.OnCommit([]Commit{w.graph})
	}

	w.stats.CommitsCompleted.Inc()
	w.fireEvent(EventKindCommitEnd, append([]*SegmentDescriptor(nil), w.graph.Segments()...), nil)
	return nil
}

type bufWriter struct{ b []byte }

func (w *bufWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// Rollback discards any buffered, uncommitted documents and deletes,
// reverting the in-memory graph to the last committed state on disk.
func (w *Writer) Rollback() error {
	w.rootMu.Lock()
	defer w.rootMu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	graph, err := loadLatestGraph(w.dir)
	if err != nil {
		return err
	}
	w.graph = &Graph{SegmentGraph: graph}
	w.pending = newPendingSegment()
	w.nextDocID.Store(0)
	w.flushControl.Reset()
	w.bufferedDeletes = NewBufferedDeletes()
	w.stats.Rollbacks.Inc()
	return nil
}

// ForceMerge merges down to at most maxSegmentCount segments, running
// synchronously via the configured MergeScheduler. Each round runs the
// MergePolicy's forced merges for the current segments; rounds repeat
// until the policy returns none.
func (w *Writer) ForceMerge(maxSegmentCount int) error {
	for {
		w.rootMu.Lock()
		if err := w.checkOpenLocked(); err != nil {
			w.rootMu.Unlock()
			return err
		}
		segments := append([]*SegmentDescriptor(nil), w.graph.Segments()...)
		w.rootMu.Unlock()

		spec := w.cfg.MergePolicy.FindForcedMerges(segments, maxSegmentCount)
		if spec == nil {
			return nil
		}
		if err := w.runMergeSpec(spec); err != nil {
			return err
		}
	}
}

// MaybeMerge asks the MergePolicy whether any merges are newly necessary
// (normally called after a flush) and runs whatever it returns.
func (w *Writer) MaybeMerge(trigger MergeTrigger) error {
	w.rootMu.Lock()
	if err := w.checkOpenLocked(); err != nil {
		w.rootMu.Unlock()
		return err
	}
	segments := append([]*SegmentDescriptor(nil), w.graph.Segments()...)
	w.rootMu.Unlock()

	spec := w.cfg.MergePolicy.FindMerges(trigger, segments)
	return w.runMergeSpec(spec)
}

func (w *Writer) runMergeSpec(spec *MergeSpecification) error {
	if spec == nil {
		return nil
	}
	return w.cfg.MergeScheduler.Schedule(spec, w.executeMerge)
}

// executeMerge opens readers for merge's inputs, fuses their postings and
// live-docs via SegmentMerger, folds in any deletes committed against an
// input after the merge began (ProcessSegmentNow), and atomically replaces
// the inputs with the merged output in the graph.
func (w *Writer) executeMerge(merge *OneMerge) (err error) {
	w.stats.MergesStarted.Inc()
	w.fireEvent(EventKindMergeStart, merge.Segments, nil)
	defer func() {
		if err != nil {
			w.stats.MergesAborted.Inc()
		}
		w.fireEvent(EventKindMergeEnd, merge.Segments, err)
	}()
	merger := NewSegmentMerger(w.log)

	readers := make([]*SegmentReader, 0, len(merge.Segments))
	for _, s := range merge.Segments {
		r, err := w.readerPool.Get(s)
		if err != nil {
			return err
		}
		readers = append(readers, r)
	}
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	state := merger.Plan(readers)

	dictsByField := map[string][]TermDictionary{}
	fieldSet := map[string]bool{}
	for _, r := range readers {
		dict, err := w.termDictionaryFor(w.dir, r.Descriptor())
		if err != nil {
			return err
		}
		if mt, ok := dict.(*memoryTermDictionary); ok {
			for _, f := range mt.Fields() {
				fieldSet[f] = true
			}
		}
	}
	for field := range fieldSet {
		var dicts []TermDictionary
		for _, r := range readers {
			d, _ := w.termDictionaryFor(w.dir, r.Descriptor())
			dicts = append(dicts, d)
		}
		dictsByField[field] = dicts
	}

	mergedDict := &memoryTermDictionary{postings: map[string]map[string]*postingsList{}}
	for field, dicts := range dictsByField {
		termSet := map[string]bool{}
		for _, d := range dicts {
			if mt, ok := d.(*memoryTermDictionary); ok {
				for _, t := range mt.Terms(field) {
					termSet[t] = true
				}
			}
		}
		for term := range termSet {
			if merge.CheckAbort() {
				return ldxerr.ErrMergeAborted
			}
			cur, err := merger.MergeTermPostings(state, field, term, dicts)
			if err != nil {
				return err
			}
			pl := &postingsList{docs: roaring.New(), freq: map[int]int{}}
			for cur.Next() {
				pl.docs.Add(uint32(cur.DocID()))
				pl.freq[cur.DocID()] = cur.Frequency()
			}
			byField, ok := mergedDict.postings[field]
			if !ok {
				byField = map[string]*postingsList{}
				mergedDict.postings[field] = byField
			}
			byField[term] = pl
		}
	}

	w.rootMu.Lock()
	name := w.graph.NewSegmentName()
	w.rootMu.Unlock()

	out := NewSegmentDescriptor(name, int(state.NewDocCount))
	live := NewMergedLiveDocs(state)
	for i, r := range readers {
		dict, err := w.termDictionaryFor(w.dir, r.Descriptor())
		if err != nil {
			return err
		}
		// before is the live set Plan() already baked into this reader's
		// doc map; now re-resolves every delete pending against this
		// segment as of right now, which may include ones recorded after
		// the reader was opened (a commit or delete racing the merge).
		// The difference between the two is exactly the set of documents
		// this merge must additionally drop to avoid resurrecting a
		// deletion it started before learning about.
		before := r.LiveDocsCopy()
		now, err := w.bufferedDeletes.ApplyDeletes(r, dict)
		if err != nil {
			return err
		}
		lateDeletes := before.Clone()
		lateDeletes.AndNot(now)
		if !lateDeletes.IsEmpty() {
			live = merger.ProcessSegmentNow(state, live, i, lateDeletes)
		}
	}
	if delCount := int(state.NewDocCount) - int(live.GetCardinality()); delCount > 0 {
		_ = out.SetDelCount(delCount)
		data, err := live.ToBytes()
		if err != nil {
			return ldxerr.Wrap(ldxerr.ErrIO, err)
		}
		if err := w.dir.Persist(ItemKindSegment, SegmentFileName(name, ExtLiveDocs, out.nextWriteDelGen), data, nil); err != nil {
			return err
		}
		out.AdvanceDelGen()
	}

	if mc, ok := w.codec.(*memoryCodec); ok {
		mc.mu.Lock()
		mc.dicts[name] = mergedDict
		mc.mu.Unlock()
	}

	w.rootMu.Lock()
	w.graph.Replace(merge.Segments, out)
	for _, s := range merge.Segments {
		w.bufferedDeletes.Clear(s)
		w.codec.Drop(s.Name())
		w.readerPool.Drop(s)
	}
	w.rootMu.Unlock()

	w.stats.MergesCompleted.Inc()
	return nil
}

// Stats returns a point-in-time snapshot of writer activity counters.
func (w *Writer) Stats() Snapshot { return w.stats.Snapshot() }

// OpenReader returns a new read view (one SegmentReader per current
// segment) over the writer's latest published graph. Buffered adds and
// deletes not yet flushed are not reflected; call OpenNRTReader for that.
func (w *Writer) OpenReader() ([]*SegmentReader, error) {
	w.rootMu.Lock()
	segments := append([]*SegmentDescriptor(nil), w.graph.Segments()...)
	w.rootMu.Unlock()

	return w.openReaderFor(segments)
}

// OpenNRTReader flushes any buffered documents and deletes into a segment
// first, then returns a read view over the result, grounded on
// IndexWriter::getReader's "flush at getReader" near-real-time behavior:
// a caller sees its own just-added documents without a full Commit.
func (w *Writer) OpenNRTReader() ([]*SegmentReader, error) {
	w.rootMu.Lock()
	if err := w.checkOpenLocked(); err != nil {
		w.rootMu.Unlock()
		return nil, err
	}
	if err := w.flushLocked(); err != nil {
		w.rootMu.Unlock()
		return nil, err
	}
	segments := append([]*SegmentDescriptor(nil), w.graph.Segments()...)
	w.rootMu.Unlock()

	return w.openReaderFor(segments)
}

func (w *Writer) openReaderFor(segments []*SegmentDescriptor) ([]*SegmentReader, error) {
	readers := make([]*SegmentReader, 0, len(segments))
	for _, s := range segments {
		r, err := w.readerPool.Get(s)
		if err != nil {
			for _, opened := range readers {
				opened.Close()
			}
			return nil, err
		}
		readers = append(readers, r)
	}
	return readers, nil
}

// Close flushes, commits, and releases every resource the writer holds.
func (w *Writer) Close() error {
	w.rootMu.Lock()
	if w.closed {
		w.rootMu.Unlock()
		return ldxerr.ErrAlreadyClosed
	}
	w.closed = true
	flushErr := w.flushLocked()
	var commitErr error
	if flushErr == nil {
		commitErr = w.commitLocked()
	}
	w.rootMu.Unlock()

	poolErr := w.readerPool.Close()
	unlockErr := w.dir.Unlock()
	closeErr := w.dir.Close()

	for _, err := range []error{flushErr, commitErr, poolErr, unlockErr, closeErr} {
		if err != nil {
			return err
		}
	}
	return nil
}
