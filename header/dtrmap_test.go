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
)

func TestTypeRepresentationsRoundTrip(t *testing.T) {
	reps := []TypeRepresentation{
		{
			SchemaType:         QName{URI: "http://example.com/types", Local: "temperature"},
			RepresentationType: QName{URI: "http://www.w3.org/2009/exi", Local: "integer"},
		},
		{
			SchemaType:         QName{URI: "http://example.com/types", Local: "ratio"},
			RepresentationType: QName{URI: "http://www.w3.org/2009/exi", Local: "decimal"},
		},
	}
	var buf bytes.Buffer
	w := channel.NewWriter(bitio.NewWriter(&buf), channel.BitPacked)
	if err := EncodeTypeRepresentations(w, reps); err != nil {
		t.Fatalf("EncodeTypeRepresentations: %v", err)
	}

	r := channel.NewReader(bitio.NewReader(bytes.NewReader(buf.Bytes())), channel.BitPacked)
	got, err := DecodeTypeRepresentations(r)
	if err != nil {
		t.Fatalf("DecodeTypeRepresentations: %v", err)
	}
	if len(got) != 2 || got[0].SchemaType.Local != "temperature" || got[1].RepresentationType.Local != "decimal" {
		t.Fatalf("got %+v", got)
	}
}

func TestTypeRepresentationsEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := channel.NewWriter(bitio.NewWriter(&buf), channel.BitPacked)
	if err := EncodeTypeRepresentations(w, nil); err != nil {
		t.Fatalf("EncodeTypeRepresentations: %v", err)
	}

	r := channel.NewReader(bitio.NewReader(bytes.NewReader(buf.Bytes())), channel.BitPacked)
	got, err := DecodeTypeRepresentations(r)
	if err != nil {
		t.Fatalf("DecodeTypeRepresentations: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
}
