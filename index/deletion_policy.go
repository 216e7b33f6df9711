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

import "go.uber.org/zap"

// DeletionPolicy decides which past commits (SegmentGraph generations) a
// Writer is allowed to delete the files of, once a newer commit has
// superseded them. Grounded on bluge/index/deletion.go's DeletionPolicy
// interface, cross-checked against edmwagner-golucene's
// IndexDeletionPolicy/IndexFileDeleter checkpoint doc comment for the
// checkpoint(graph, isCommit) semantics.
type DeletionPolicy interface {
	// OnCommit is called with every known commit, most recent last, after
	// a new commit completes. Implementations mark which ones are safe to
	// delete by calling Delete on all but the ones they want kept.
	OnCommit(commits []Commit)

	// OnInit is called once at writer open time with whatever commits the
	// directory already contains.
	OnInit(commits []Commit)
}

// Commit is a DeletionPolicy's view of one persisted SegmentGraph
// generation: enough to decide whether to keep it, and a way to mark it
// for deletion.
type Commit interface {
	Generation() int64
	Files() []string
	Delete()
	IsDeleted() bool
}

// KeepNLatestDeletionPolicy retains the N most recent commits and marks
// every older one for deletion. Grounded directly on bluge's
// KeepNLatestDeletionPolicy.
type KeepNLatestDeletionPolicy struct {
	N int
}

func NewKeepNLatestDeletionPolicy(n int) *KeepNLatestDeletionPolicy {
	if n < 1 {
		n = 1
	}
	return &KeepNLatestDeletionPolicy{N: n}
}

func (p *KeepNLatestDeletionPolicy) OnInit(commits []Commit) { p.OnCommit(commits) }

func (p *KeepNLatestDeletionPolicy) OnCommit(commits []Commit) {
	if len(commits) <= p.N {
		return
	}
	for _, c := range commits[:len(commits)-p.N] {
		c.Delete()
	}
}

// fileDeleter tracks reference counts of every file named by any commit
// still known to the writer, so a file shared across commits (a segment
// untouched since an earlier commit) is only removed from the directory
// once no surviving commit still names it. Grounded on edmwagner's
// IndexFileDeleter.checkpoint(segmentInfos, isCommit) doc comment.
type fileDeleter struct {
	dir   Directory
	log   *zap.Logger
	refs  map[string]int
}

func newFileDeleter(dir Directory, log *zap.Logger) *fileDeleter {
	if log == nil {
		log = zap.NewNop()
	}
	return &fileDeleter{dir: dir, log: log, refs: make(map[string]int)}
}

// checkpoint records every file named by graph as referenced once more,
// and must be paired with a later release of the previous checkpoint's
// files once the new graph becomes the published root.
func (fd *fileDeleter) checkpoint(graph *SegmentGraph) {
	for _, s := range graph.Segments() {
		for _, f := range s.Files() {
			fd.refs[f]++
		}
	}
}

// release drops one reference to every file named by graph, deleting any
// file whose reference count reaches zero.
func (fd *fileDeleter) release(graph *SegmentGraph) {
	for _, s := range graph.Segments() {
		for _, f := range s.Files() {
			fd.refs[f]--
			if fd.refs[f] <= 0 {
				delete(fd.refs, f)
				if err := fd.dir.Remove(f); err != nil {
					fd.log.Warn("failed to remove unreferenced file", zap.String("file", f), zap.Error(err))
				}
			}
		}
	}
}
