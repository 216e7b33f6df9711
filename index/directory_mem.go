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
	"sync"

	"github.com/nakama-index/ldx/ldxerr"
)

// MemoryDirectory is an in-memory Directory, used by tests and by
// InMemoryOnlyConfig for ephemeral indexes. Grounded on
// bluge/index/directory_mem.go.
type MemoryDirectory struct {
	mu      sync.RWMutex
	files   map[string][]byte
	locked  bool
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{files: make(map[string][]byte)}
}

func (d *MemoryDirectory) Setup(readOnly bool) error { return nil }

func (d *MemoryDirectory) List(kind ItemKind) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	for name := range d.files {
		if itemKindOf(name) == kind {
			out = append(out, name)
		}
	}
	return out, nil
}

func (d *MemoryDirectory) Load(name string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.files[name]
	if !ok {
		return nil, ldxerr.Wrap(ldxerr.ErrIO, errNotFound(name))
	}
	return append([]byte(nil), data...), nil
}

func (d *MemoryDirectory) Persist(kind ItemKind, name string, data []byte, progress func(written, total int64)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[name] = append([]byte(nil), data...)
	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}
	return nil
}

func (d *MemoryDirectory) Remove(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, name)
	return nil
}

func (d *MemoryDirectory) Stats() DirectoryStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	stats := DirectoryStats{NumFiles: len(d.files)}
	for _, f := range d.files {
		stats.TotalSize += int64(len(f))
	}
	return stats
}

func (d *MemoryDirectory) Sync(kind ItemKind) error { return nil }

func (d *MemoryDirectory) Lock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return ldxerr.ErrAlreadyLocked
	}
	d.locked = true
	return nil
}

func (d *MemoryDirectory) Unlock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = false
	return nil
}

func (d *MemoryDirectory) Close() error { return nil }

type notFoundError struct{ name string }

func (e *notFoundError) Error() string { return "file not found: " + e.name }

func errNotFound(name string) error { return &notFoundError{name: name} }
