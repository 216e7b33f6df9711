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

//go:build pgintegration

// Package pgsource bulk-loads documents into an index.Writer from a
// Postgres table, keyset-paginated the same way the storage index's own
// bulk loader walks its source table. It is an optional ingestion
// collaborator, not part of the core: the core never imports it.
package pgsource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/nakama-index/ldx/index"
)

// Row is one source-table record to be mapped into an index document.
type Row struct {
	Collection string
	Key        string
	UserID     string
	Version    string
	Value      string
}

// FieldMapper turns a Row into the indexed/stored field maps AddDocument
// expects. Returning a nil fields map skips the row (the same convention
// the storage index's own field mapper uses for empty-after-filtering
// values).
type FieldMapper func(row Row) (fields map[string]string, stored map[string][]byte, err error)

// DefaultFieldMapper flattens row.Value's top-level JSON object into one
// indexed field per key (string-ified scalars; nested values are
// serialized back to JSON text), plus collection/key/user_id/version as
// keyword-like stored fields.
func DefaultFieldMapper(row Row) (map[string]string, map[string][]byte, error) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(row.Value), &decoded); err != nil {
		return nil, nil, fmt.Errorf("pgsource: decode value for %s/%s/%s: %w", row.Collection, row.Key, row.UserID, err)
	}
	if len(decoded) == 0 {
		return nil, nil, nil
	}

	fields := make(map[string]string, len(decoded)+4)
	fields["collection"] = row.Collection
	fields["key"] = row.Key
	fields["user_id"] = row.UserID
	for k, v := range decoded {
		fields[k] = scalarString(v)
	}

	stored := map[string][]byte{
		"collection": []byte(row.Collection),
		"key":        []byte(row.Key),
		"user_id":    []byte(row.UserID),
		"version":    []byte(row.Version),
		"value":      []byte(row.Value),
	}
	return fields, stored, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// Config configures a Postgres-backed bulk load.
type Config struct {
	// Collection restricts the load to one source collection.
	Collection string
	// Key, if non-empty, further restricts the load to one key within
	// Collection.
	Key string
	// PageSize bounds how many rows one SELECT fetches before the
	// writer buffers them and the keyset cursor advances. Defaults to
	// 10,000, matching the storage index's own page size.
	PageSize int
	// MaxRows stops the load once this many documents have been added,
	// regardless of whether more rows remain; rows the Mapper skips do not
	// count toward it. Zero means unbounded.
	MaxRows int
	// Mapper builds index fields from each row. Defaults to
	// DefaultFieldMapper.
	Mapper FieldMapper
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = 10_000
	}
	if c.Mapper == nil {
		c.Mapper = DefaultFieldMapper
	}
	return c
}

// PostgresDocumentSource bulk-loads rows from a Postgres table into an index.Writer,
// keyset-paginated on (collection, key, user_id) exactly as the storage
// index's own load() walks its source table: an initial page ordered by
// the primary key tuple, then successive pages constrained to rows
// greater than the last tuple seen, until a page comes back short or
// MaxRows is reached.
type PostgresDocumentSource struct {
	pool *pgxpool.Pool
	cfg  Config
}

// New returns a PostgresDocumentSource reading from pool.
func New(pool *pgxpool.Pool, cfg Config) *PostgresDocumentSource {
	return &PostgresDocumentSource{pool: pool, cfg: cfg.withDefaults()}
}

// Load reads rows from the storage table and feeds them to w via
// AddDocument, returning the number of documents added.
func (s *PostgresDocumentSource) Load(ctx context.Context, w *index.Writer) (int64, error) {
	var loaded int64
	var lastKey, lastUserID string
	first := true

	for {
		if s.cfg.MaxRows > 0 && loaded >= int64(s.cfg.MaxRows) {
			break
		}

		limit := s.cfg.PageSize
		if s.cfg.MaxRows > 0 {
			if remaining := int64(s.cfg.MaxRows) - loaded; remaining < int64(limit) {
				limit = int(remaining)
			}
		}

		rows, err := s.queryPage(ctx, first, lastKey, lastUserID, limit)
		if err != nil {
			return loaded, err
		}

		var rowsRead bool
		for _, r := range rows {
			rowsRead = true
			lastKey, lastUserID = r.Key, r.UserID

			fields, stored, err := s.cfg.Mapper(r)
			if err != nil {
				return loaded, err
			}
			if fields == nil {
				continue
			}
			if err := w.AddDocument(fields, stored); err != nil {
				return loaded, fmt.Errorf("pgsource: add document %s/%s/%s: %w", r.Collection, r.Key, r.UserID, err)
			}
			loaded++
		}

		first = false
		if !rowsRead || len(rows) < limit {
			break
		}
	}

	return loaded, nil
}

func (s *PostgresDocumentSource) queryPage(ctx context.Context, first bool, lastKey, lastUserID string, limit int) ([]Row, error) {
	var sql string
	var args []any

	switch {
	case first && s.cfg.Key == "":
		sql = `SELECT user_id, key, version, value FROM storage
WHERE collection = $1
ORDER BY key, user_id
LIMIT $2`
		args = []any{s.cfg.Collection, limit}
	case first:
		sql = `SELECT user_id, key, version, value FROM storage
WHERE collection = $1 AND key = $2
ORDER BY key, user_id
LIMIT $3`
		args = []any{s.cfg.Collection, s.cfg.Key, limit}
	case s.cfg.Key == "":
		sql = `SELECT user_id, key, version, value FROM storage
WHERE collection = $1 AND (key, user_id) > ($2, $3)
ORDER BY key, user_id
LIMIT $4`
		args = []any{s.cfg.Collection, lastKey, lastUserID, limit}
	default:
		sql = `SELECT user_id, key, version, value FROM storage
WHERE collection = $1 AND key = $2 AND (key, user_id) > ($2, $3)
ORDER BY key, user_id
LIMIT $4`
		args = []any{s.cfg.Collection, s.cfg.Key, lastUserID, limit}
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var userID, key, version, value string
		if err := rows.Scan(&userID, &key, &version, &value); err != nil {
			return nil, err
		}
		out = append(out, Row{
			Collection: s.cfg.Collection,
			Key:        key,
			UserID:     userID,
			Version:    version,
			Value:      value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
