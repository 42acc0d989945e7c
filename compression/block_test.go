// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package compression

import (
	"bytes"
	"io"
	"testing"
)

func TestBlockRoundTripSingleBlock(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBlockWriter(&buf, ByName("s2"), 4096)
	payload := bytes.Repeat([]byte("exi byte-packed channel stream "), 200)
	if _, err := bw.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	br := NewBlockReader(&buf, DecompressorByName("s2"))
	got, err := io.ReadAll(br)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %d bytes, want %d bytes matching original", len(got), len(payload))
	}
}

func TestBlockRoundTripMultipleBlocks(t *testing.T) {
	var buf bytes.Buffer
	const blockSize = 128
	bw := NewBlockWriter(&buf, ByName("s2"), blockSize)
	payload := bytes.Repeat([]byte("0123456789"), 100) // 1000 bytes, several blocks
	if _, err := bw.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	br := NewBlockReader(&buf, DecompressorByName("s2"))
	got, err := io.ReadAll(br)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("multi-block round trip mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}
