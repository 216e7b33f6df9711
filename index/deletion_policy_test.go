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

	"github.com/stretchr/testify/require"
)

type fakeCommit struct {
	gen     int64
	deleted bool
}

func (c *fakeCommit) Generation() int64 { return c.gen }
func (c *fakeCommit) Files() []string   { return nil }
func (c *fakeCommit) Delete()           { c.deleted = true }
func (c *fakeCommit) IsDeleted() bool   { return c.deleted }

func TestKeepNLatestDeletionPolicyKeepsOnlyNewest(t *testing.T) {
	p := NewKeepNLatestDeletionPolicy(2)
	commits := []Commit{&fakeCommit{gen: 0}, &fakeCommit{gen: 1}, &fakeCommit{gen: 2}}
	p.OnCommit(commits)

	require.True(t, commits[0].IsDeleted())
	require.False(t, commits[1].IsDeleted())
	require.False(t, commits[2].IsDeleted())
}

func TestKeepNLatestDeletionPolicyNoopBelowThreshold(t *testing.T) {
	p := NewKeepNLatestDeletionPolicy(5)
	commits := []Commit{&fakeCommit{gen: 0}, &fakeCommit{gen: 1}}
	p.OnCommit(commits)
	for _, c := range commits {
		require.False(t, c.IsDeleted())
	}
}

func TestNewKeepNLatestDeletionPolicyClampsToOne(t *testing.T) {
	p := NewKeepNLatestDeletionPolicy(0)
	require.Equal(t, 1, p.N)
}

func TestFileDeleterReleasesOnlyWhenLastReferenceDrops(t *testing.T) {
	dir := NewMemoryDirectory()
	require.NoError(t, dir.Persist(ItemKindSegment, "_0.fnm", []byte("a"), nil))

	fd := newFileDeleter(dir, nil)
	g1 := NewSegmentGraph()
	d := NewSegmentDescriptor("_0", 1)
	g1.Add(d)
	fd.checkpoint(g1)

	g2 := g1.Clone()
	fd.checkpoint(g2)

	fd.release(g1)
	_, err := dir.Load("_0.fnm")
	require.NoError(t, err, "file still referenced by g2's checkpoint")

	fd.release(g2)
	_, err = dir.Load("_0.fnm")
	require.Error(t, err, "file should be removed once last reference drops")
}
