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
	"testing"
)

func TestS2RoundTrip(t *testing.T) {
	comp := ByName("s2")
	if _, ok := comp.(s2Compressor); !ok {
		t.Fatalf("bad compressor for s2: %T", comp)
	}
	dec := DecompressorByName("s2")
	if _, ok := dec.(s2Compressor); !ok {
		t.Fatalf("bad decompressor for s2: %T", dec)
	}
	ctl := bytes.Repeat([]byte("foo"), 1000)
	src := append([]byte(nil), ctl...)
	cmp := comp.Compress(src, nil)
	dst := make([]byte, len(src))
	if err := dec.Decompress(cmp, dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(ctl) != string(dst) {
		t.Fatalf("mismatch after s2 round trip")
	}
}

func TestZstdRoundTrip(t *testing.T) {
	comp := ByName("zstd")
	if comp == nil {
		t.Fatalf("ByName(zstd) returned nil")
	}
	dec := DecompressorByName("zstd")
	if dec == nil {
		t.Fatalf("DecompressorByName(zstd) returned nil")
	}
	ctl := bytes.Repeat([]byte("bar baz quux"), 500)
	cmp := comp.Compress(ctl, nil)
	dst := make([]byte, len(ctl))
	if err := dec.Decompress(cmp, dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(ctl) != string(dst) {
		t.Fatalf("mismatch after zstd round trip")
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	if ByName("lz4") != nil {
		t.Fatalf("expected nil Compressor for unknown algorithm")
	}
	if DecompressorByName("lz4") != nil {
		t.Fatalf("expected nil Decompressor for unknown algorithm")
	}
}

func TestOverlaps(t *testing.T) {
	a := make([]byte, 10, 30)
	b := a[10:]
	if overlaps(a, b) {
		t.Fatalf("adjacent slices should not overlap")
	}
	b = a[5:]
	if !overlaps(a, b) {
		t.Fatalf("overlapping slices should overlap")
	}
}
