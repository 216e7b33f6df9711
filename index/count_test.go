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
	"bufio"
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountHashWriterTracksByteCount(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	chw := &countHashWriter{w: w, crc: crc32.NewIEEE()}

	n, err := chw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int64(5), chw.count)

	require.NoError(t, chw.flushAndWriteChecksum())
	require.NoError(t, w.Flush())
	require.Equal(t, int64(9), chw.count)
}

func TestCountHashReaderVerifiesChecksumRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	chw := &countHashWriter{w: w, crc: crc32.NewIEEE()}
	_, err := chw.Write([]byte("payload bytes"))
	require.NoError(t, err)
	require.NoError(t, chw.flushAndWriteChecksum())
	require.NoError(t, w.Flush())

	chr := &countHashReader{r: bytes.NewReader(buf.Bytes()[:13]), crc: crc32.NewIEEE()}
	got := make([]byte, 13)
	_, err = chr.Read(got)
	require.NoError(t, err)

	trailerReader := &countHashReader{r: bytes.NewReader(buf.Bytes()[13:]), crc: chr.crc}
	require.NoError(t, trailerReader.verifyChecksum())
}

func TestCountHashReaderDetectsMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	chw := &countHashWriter{w: w, crc: crc32.NewIEEE()}
	_, err := chw.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, chw.flushAndWriteChecksum())
	require.NoError(t, w.Flush())

	corrupted := buf.Bytes()
	corrupted[0] ^= 0xFF

	chr := &countHashReader{r: bytes.NewReader(corrupted[:7]), crc: crc32.NewIEEE()}
	got := make([]byte, 7)
	_, err = chr.Read(got)
	require.NoError(t, err)

	trailerReader := &countHashReader{r: bytes.NewReader(corrupted[7:]), crc: chr.crc}
	require.Error(t, trailerReader.verifyChecksum())
}
