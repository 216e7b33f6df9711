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
	"encoding/binary"
	"fmt"
	"hash"
	"io"
)

// countHashWriter wraps a writer, tracking both total bytes written and a
// running checksum, and appends that checksum as a trailer when asked.
type countHashWriter struct {
	w     io.Writer
	crc   hash.Hash32
	count int64
}

func (c *countHashWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	if n > 0 {
		c.crc.Write(p[:n])
	}
	return n, err
}

func (c *countHashWriter) flushAndWriteChecksum() error {
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], c.crc.Sum32())
	if _, err := c.w.Write(trailer[:]); err != nil {
		return err
	}
	c.count += int64(len(trailer))
	if f, ok := c.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// countHashReader mirrors countHashWriter for reads, letting the caller
// verify a trailing CRC32 against everything read before it.
type countHashReader struct {
	r   io.Reader
	crc hash.Hash32
}

func (c *countHashReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.crc.Write(p[:n])
	}
	return n, err
}

func (c *countHashReader) verifyChecksum() error {
	var trailer [4]byte
	if _, err := io.ReadFull(c.r, trailer[:]); err != nil {
		return err
	}
	got := binary.BigEndian.Uint32(trailer[:])
	want := c.crc.Sum32()
	if got != want {
		return fmt.Errorf("checksum mismatch: file=%x computed=%x", got, want)
	}
	return nil
}
