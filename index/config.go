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

// Config configures an IndexSupervisor. Values are set via chained With*
// methods returning a modified copy, grounded on bluge/index/config.go's
// Config.With... builder pattern, rather than package-level mutable
// defaults.
type Config struct {
	DirectoryFunc func() Directory

	MaxBufferedDocs   int
	MaxBufferedBytes  int64
	MaxPendingDeletes int

	MergePolicy    MergePolicy
	MergeScheduler MergeScheduler
	DeletionPolicy DeletionPolicy

	Logger *zap.Logger

	// NormsDisabled turns off per-field norm computation entirely, the
	// way a caller with no need for length normalization can skip the
	// cost.
	NormsDisabled bool

	// EventHandler, if set, is invoked synchronously at each flush/merge/
	// commit boundary, letting a caller drive its own metrics or logging
	// independent of the Stats counters.
	EventHandler EventHandler
}

// DefaultConfig returns a Config backed by a filesystem directory at path.
func DefaultConfig(path string) Config {
	return Config{
		DirectoryFunc:     func() Directory { return NewFileSystemDirectory(path) },
		MaxBufferedDocs:   1000,
		MaxBufferedBytes:  64 << 20,
		MaxPendingDeletes: 1000,
		MergePolicy:       NewTieredMergePolicy(),
		MergeScheduler:    NewSerialMergeScheduler(),
		DeletionPolicy:    NewKeepNLatestDeletionPolicy(1),
		Logger:            zap.NewNop(),
	}
}

// InMemoryOnlyConfig returns a Config with no on-disk footprint, used by
// tests.
func InMemoryOnlyConfig() Config {
	cfg := DefaultConfig("")
	cfg.DirectoryFunc = func() Directory { return NewMemoryDirectory() }
	return cfg
}

func (c Config) WithMaxBufferedDocs(n int) Config {
	c.MaxBufferedDocs = n
	return c
}

func (c Config) WithMaxBufferedBytes(n int64) Config {
	c.MaxBufferedBytes = n
	return c
}

func (c Config) WithMaxPendingDeletes(n int) Config {
	c.MaxPendingDeletes = n
	return c
}

func (c Config) WithMergePolicy(p MergePolicy) Config {
	c.MergePolicy = p
	return c
}

func (c Config) WithMergeScheduler(s MergeScheduler) Config {
	c.MergeScheduler = s
	return c
}

func (c Config) WithDeletionPolicy(p DeletionPolicy) Config {
	c.DeletionPolicy = p
	return c
}

func (c Config) WithLogger(l *zap.Logger) Config {
	c.Logger = l
	return c
}

func (c Config) WithNormsDisabled(disabled bool) Config {
	c.NormsDisabled = disabled
	return c
}

func (c Config) WithEventHandler(h EventHandler) Config {
	c.EventHandler = h
	return c
}
