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

package header

import (
	"bytes"
	"testing"

	"github.com/kevin-314159/exificient-core/bitio"
	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/grammar"
)

func TestProfileRoundTripBoundedCaps(t *testing.T) {
	var buf bytes.Buffer
	w := channel.NewWriter(bitio.NewWriter(&buf), channel.BitPacked)
	if err := EncodeProfile(w, true, 3, 7); err != nil {
		t.Fatalf("EncodeProfile: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := channel.NewReader(bitio.NewReader(bytes.NewReader(buf.Bytes())), channel.BitPacked)
	local, elems, prods, err := DecodeProfile(r)
	if err != nil {
		t.Fatalf("DecodeProfile: %v", err)
	}
	if !local || elems != 3 || prods != 7 {
		t.Fatalf("got (%v,%d,%d), want (true,3,7)", local, elems, prods)
	}
}

func TestProfileRoundTripUnboundedCaps(t *testing.T) {
	var buf bytes.Buffer
	w := channel.NewWriter(bitio.NewWriter(&buf), channel.BitPacked)
	if err := EncodeProfile(w, false, grammar.Unbounded, grammar.Unbounded); err != nil {
		t.Fatalf("EncodeProfile: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := channel.NewReader(bitio.NewReader(bytes.NewReader(buf.Bytes())), channel.BitPacked)
	local, elems, prods, err := DecodeProfile(r)
	if err != nil {
		t.Fatalf("DecodeProfile: %v", err)
	}
	if local || elems != grammar.Unbounded || prods != grammar.Unbounded {
		t.Fatalf("got (%v,%d,%d), want (false,unbounded,unbounded)", local, elems, prods)
	}
}
