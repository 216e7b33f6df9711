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

package atomiccounter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncrementAndGetVsGetAndIncrement(t *testing.T) {
	c := New(0)
	require.EqualValues(t, 1, c.IncrementAndGet())
	require.EqualValues(t, 1, c.GetAndIncrement())
	require.EqualValues(t, 2, c.Get())
}

func TestDecrementAndGetVsGetAndDecrement(t *testing.T) {
	c := New(10)
	require.EqualValues(t, 9, c.DecrementAndGet())
	require.EqualValues(t, 9, c.GetAndDecrement())
	require.EqualValues(t, 8, c.Get())
}

func TestConcurrentIncrements(t *testing.T) {
	c := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementAndGet()
		}()
	}
	wg.Wait()
	require.EqualValues(t, 100, c.Get())
}

func TestCompareAndSwap(t *testing.T) {
	c := New(5)
	require.True(t, c.CompareAndSwap(5, 6))
	require.False(t, c.CompareAndSwap(5, 7))
	require.EqualValues(t, 6, c.Get())
}
