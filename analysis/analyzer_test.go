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

package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardAnalyzerLowercasesAndSplitsOnNonAlphanumeric(t *testing.T) {
	got := StandardAnalyzer{}.Analyze("title", "Hello, World! 2024")
	require.Equal(t, []string{"hello", "world", "2024"}, got)
}

func TestStandardAnalyzerEmptyStringYieldsNoTokens(t *testing.T) {
	require.Empty(t, StandardAnalyzer{}.Analyze("title", ""))
}

func TestStandardAnalyzerCollapsesRepeatedSeparators(t *testing.T) {
	got := StandardAnalyzer{}.Analyze("title", "foo---bar   baz")
	require.Equal(t, []string{"foo", "bar", "baz"}, got)
}

func TestStandardAnalyzerIgnoresFieldName(t *testing.T) {
	a := StandardAnalyzer{}.Analyze("a", "hello")
	b := StandardAnalyzer{}.Analyze("b", "hello")
	require.Equal(t, a, b)
}
