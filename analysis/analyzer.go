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

// Package analysis provides the reference Analyzer implementation the
// indexing core is tested and demonstrated against. Tokenizer/analyzer
// implementations beyond this reference one are out of scope; concrete
// language-specific analysis is an external collaborator.
package analysis

import (
	"strings"
	"unicode"
)

// StandardAnalyzer splits on non-letter/non-digit runes and lowercases
// every resulting token. It keeps no stopword list and applies no
// stemming, matching the minimal reference analyzer spec §4.11 calls for.
type StandardAnalyzer struct{}

// Analyze implements index.Analyzer structurally.
func (StandardAnalyzer) Analyze(field, text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
