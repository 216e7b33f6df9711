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

// Package atomiccounter provides a named, lock-free 64-bit counter with
// explicit pre- and post-mutation operations. The index package keeps its
// own counters with go.uber.org/atomic and does not import this package.
package atomiccounter

import "go.uber.org/atomic"

// Counter wraps atomic.Int64 with explicitly named pre/post mutation
// semantics so callers never have to guess which value a mutating method
// returns.
type Counter struct {
	v atomic.Int64
}

// New returns a Counter initialized to v.
func New(v int64) *Counter {
	c := &Counter{}
	c.v.Store(v)
	return c
}

// Get returns the current value.
func (c *Counter) Get() int64 {
	return c.v.Load()
}

// Set stores v unconditionally.
func (c *Counter) Set(v int64) {
	c.v.Store(v)
}

// IncrementAndGet adds 1 and returns the value after the increment.
func (c *Counter) IncrementAndGet() int64 {
	return c.v.Inc()
}

// GetAndIncrement adds 1 and returns the value before the increment.
//
// The reference implementation this counter is modeled on conflated this
// with IncrementAndGet, so that callers comparing "did I just cross
// threshold N" against the returned value were off by one. The two
// operations are kept as distinct named methods here precisely so that
// mistake can't be reproduced.
func (c *Counter) GetAndIncrement() int64 {
	return c.v.Inc() - 1
}

// DecrementAndGet subtracts 1 and returns the value after the decrement.
func (c *Counter) DecrementAndGet() int64 {
	return c.v.Dec()
}

// GetAndDecrement subtracts 1 and returns the value before the decrement.
func (c *Counter) GetAndDecrement() int64 {
	return c.v.Dec() + 1
}

// AddAndGet adds delta and returns the value after the addition.
func (c *Counter) AddAndGet(delta int64) int64 {
	return c.v.Add(delta)
}

// GetAndAdd adds delta and returns the value before the addition.
func (c *Counter) GetAndAdd(delta int64) int64 {
	return c.v.Add(delta) - delta
}

// CompareAndSwap sets the value to next if the current value is cur.
func (c *Counter) CompareAndSwap(cur, next int64) bool {
	return c.v.CAS(cur, next)
}
