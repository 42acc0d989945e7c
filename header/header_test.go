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
	"github.com/kevin-314159/exificient-core/grammar"
)

// TestNoOptionsHeaderIsSingleByte checks the exact byte a schema-less,
// bit-packed, no-cookie, no-options header encodes to: distinguishing bits
// "10", options-present "0", preview "0", version "0000" packed MSB-first
// into one byte, 0x80.
func TestNoOptionsHeaderIsSingleByte(t *testing.T) {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	if err := EncodeHeader(bw, DefaultOptions()); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	if err := bw.Align(); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if got := buf.Bytes(); len(got) != 1 || got[0] != 0x80 {
		t.Fatalf("got %x, want [80]", got)
	}
}

func TestHeaderRoundTripNoOptions(t *testing.T) {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	in := DefaultOptions()
	if err := EncodeHeader(bw, in); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	bw.Align()

	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out, err := DecodeHeader(br)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if out.Strict || out.Comments || out.SelfContained {
		t.Fatalf("expected all fidelity options off, got %+v", out)
	}
	if out.MaxBuiltInElementGrammars != grammar.Unbounded || out.MaxBuiltInProductions != grammar.Unbounded {
		t.Fatalf("expected unbounded caps, got %+v", out)
	}
}

func TestHeaderRoundTripWithCookieAndOptions(t *testing.T) {
	in := DefaultOptions()
	in.IncludeCookie = true
	in.Strict = true
	in.Comments = true
	in.SelfContained = true
	in.BlockSizeSet = true
	in.BlockSize = 1000000
	in.ValueMaxLengthSet = true
	in.ValueMaxLength = 64
	in.ValuePartitionCapacitySet = true
	in.ValuePartitionCapacity = 4096
	in.SchemaIDPresent = true
	in.SchemaID = "urn:example:schema"
	in.TypeRepresentations = []TypeRepresentation{
		{
			SchemaType:         QName{URI: "http://example.com/types", Local: "temperature"},
			RepresentationType: QName{URI: "http://www.w3.org/2009/exi", Local: "integer"},
		},
	}
	in.ProfileSet = true
	in.LocalValuePartitions = true
	in.MaxBuiltInElementGrammars = 5
	in.MaxBuiltInProductions = 10

	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	if err := EncodeHeader(bw, in); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	bw.Align()

	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out, err := DecodeHeader(br)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !out.IncludeCookie {
		t.Fatalf("expected cookie to be detected")
	}
	if !out.Strict || !out.Comments || !out.SelfContained {
		t.Fatalf("fidelity options lost: %+v", out)
	}
	if out.BlockSize != 1000000 || out.ValueMaxLength != 64 || out.ValuePartitionCapacity != 4096 {
		t.Fatalf("scalar options lost: %+v", out)
	}
	if out.SchemaID != "urn:example:schema" || out.SchemaLess {
		t.Fatalf("schemaId lost: %+v", out)
	}
	if len(out.TypeRepresentations) != 1 || out.TypeRepresentations[0].SchemaType.Local != "temperature" {
		t.Fatalf("datatypeRepresentationMap lost: %+v", out.TypeRepresentations)
	}
	if !out.LocalValuePartitions || out.MaxBuiltInElementGrammars != 5 || out.MaxBuiltInProductions != 10 {
		t.Fatalf("profile lost: %+v", out)
	}
}

func TestHeaderRoundTripSchemaLess(t *testing.T) {
	in := DefaultOptions()
	in.SchemaIDPresent = true
	in.SchemaLess = true

	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	if err := EncodeHeader(bw, in); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	bw.Align()

	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out, err := DecodeHeader(br)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !out.SchemaLess {
		t.Fatalf("expected SchemaLess to round-trip true")
	}
}

func TestHeaderRejectsBadDistinguishingBits(t *testing.T) {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	bw.WriteBits(0x1, distinguishingBitWidth) // wrong pattern
	bw.WriteBits(0, 6)
	bw.Align()

	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	if _, err := DecodeHeader(br); err == nil {
		t.Fatalf("expected DecodeHeader to reject bad distinguishing bits")
	}
}

func TestHeaderRejectsPreviewVersion(t *testing.T) {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	bw.WriteBits(distinguishingBits, distinguishingBitWidth)
	bw.WriteBit(0) // options present: false
	bw.WriteBit(1) // preview: true, must be rejected
	bw.WriteBits(0, formatVersionFieldWidth)
	bw.Align()

	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	if _, err := DecodeHeader(br); err == nil {
		t.Fatalf("expected DecodeHeader to reject a preview-version header")
	}
}

func TestNewSchemaIDIsUniqueAndNonEmpty(t *testing.T) {
	a := NewSchemaID()
	b := NewSchemaID()
	if a == "" || b == "" {
		t.Fatalf("expected non-empty schema IDs")
	}
	if a == b {
		t.Fatalf("expected two calls to NewSchemaID to differ, got %q twice", a)
	}
}
