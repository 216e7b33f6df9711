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

import "io"

// ItemKind distinguishes the two kinds of named blobs a Directory stores,
// matching the teacher's ItemKindSnapshot/ItemKindSegment split so
// implementations can apply different retention/sync policy to each.
type ItemKind int

const (
	ItemKindSegment ItemKind = iota
	ItemKindSnapshot
)

// DirectoryStats reports approximate resource usage for diagnostics.
type DirectoryStats struct {
	NumFiles  int
	TotalSize int64
}

// Directory abstracts the persisted-state layout: where segment files and
// segments_N commit files live, and how they are created, read, and
// garbage collected. A Directory implementation never interprets segment
// contents — it only moves named byte blobs.
type Directory interface {
	// Setup prepares the directory for use, creating it if readOnly is
	// false and it does not yet exist.
	Setup(readOnly bool) error

	// List returns every currently-visible file name of the given kind.
	List(kind ItemKind) ([]string, error)

	// Load returns the full contents of name.
	Load(name string) ([]byte, error)

	// Persist durably writes data under name, of the given kind, calling
	// progress periodically for large writes so callers can report
	// merge/flush progress.
	Persist(kind ItemKind, name string, data []byte, progress func(written, total int64)) error

	// Remove deletes name. Implementations may defer the actual removal
	// until Sync if a concurrent reader might still be using it.
	Remove(name string) error

	// Stats reports approximate directory-wide usage.
	Stats() DirectoryStats

	// Sync durably persists any deferred file-system-level writes
	// (renames, removals) so a subsequent crash cannot lose them.
	Sync(kind ItemKind) error

	// Lock acquires the single-writer lock for this directory, returning
	// ErrAlreadyLocked if another writer already holds it.
	Lock() error

	// Unlock releases a previously acquired write lock.
	Unlock() error

	io.Closer
}
