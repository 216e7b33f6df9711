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

// Package fieldcache provides the reference FieldCache collaborator:
// typed per-field value lookup built directly on the core's stored-fields
// surface, keyed by each reader's segment name so repeated lookups
// against the same segment reuse one computed cache instead of rescanning.
package fieldcache

import (
	"strconv"
	"sync"

	"github.com/nakama-index/ldx/index"
)

// FieldCache is the reference implementation of the spec's FieldCache
// collaborator: GetInts/GetStrings/GetDoubles(reader, field), each
// building (and memoizing) a dense per-document array by visiting every
// live document's stored fields once.
type FieldCache struct {
	mu    sync.Mutex
	byKey map[string]map[string]interface{}
}

// New returns an empty FieldCache.
func New() *FieldCache {
	return &FieldCache{byKey: make(map[string]map[string]interface{})}
}

func (c *FieldCache) keyFor(reader *index.SegmentReader) string {
	return reader.Descriptor().Name()
}

func (c *FieldCache) cacheFor(reader *index.SegmentReader) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.keyFor(reader)
	m, ok := c.byKey[key]
	if !ok {
		m = make(map[string]interface{})
		c.byKey[key] = m
	}
	return m
}

// GetStrings returns field's stored value for every live document in
// reader, in ascending doc-id order, empty string where the field is
// absent.
func (c *FieldCache) GetStrings(reader *index.SegmentReader, field string, stored index.StoredFieldsReader) ([]string, error) {
	cache := c.cacheFor(reader)
	c.mu.Lock()
	if v, ok := cache[field+":string"]; ok {
		c.mu.Unlock()
		return v.([]string), nil
	}
	c.mu.Unlock()

	out := make([]string, reader.Descriptor().DocCount())
	cur := index.NewMatchAllCursor(reader.LiveDocsCopy())
	for cur.Next() {
		doc := cur.DocID()
		if err := stored.VisitStoredFields(doc, func(f string, value []byte) bool {
			if f == field {
				out[doc] = string(value)
				return false
			}
			return true
		}); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	cache[field+":string"] = out
	c.mu.Unlock()
	return out, nil
}

// GetInts parses field's stored value as a base-10 integer per live
// document, leaving non-numeric or absent values as 0.
func (c *FieldCache) GetInts(reader *index.SegmentReader, field string, stored index.StoredFieldsReader) ([]int64, error) {
	strs, err := c.GetStrings(reader, field, stored)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(strs))
	for i, s := range strs {
		if s == "" {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			out[i] = v
		}
	}
	return out, nil
}

// GetDoubles parses field's stored value as a float64 per live document.
func (c *FieldCache) GetDoubles(reader *index.SegmentReader, field string, stored index.StoredFieldsReader) ([]float64, error) {
	strs, err := c.GetStrings(reader, field, stored)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(strs))
	for i, s := range strs {
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err == nil {
			out[i] = v
		}
	}
	return out, nil
}
