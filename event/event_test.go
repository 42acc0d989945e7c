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

package event

import (
	"bytes"
	"testing"

	"github.com/kevin-314159/exificient-core/bitio"
	"github.com/kevin-314159/exificient-core/grammar"
	"github.com/kevin-314159/exificient-core/qname"
)

func newSchemaLessRoundTrip(cfg Config) (*qname.Registry, *grammar.SchemaLess) {
	reg := qname.NewRegistry()
	sl := grammar.NewSchemaLess(reg, cfg.Fidelity(), cfg.Caps())
	return reg, sl
}

func TestFlatDocumentRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	_, g := newSchemaLessRoundTrip(cfg)

	var buf bytes.Buffer
	enc := NewEncoder(bitio.NewWriter(&buf), g, cfg, nil)
	if err := enc.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if err := enc.StartElement("", "root", ""); err != nil {
		t.Fatalf("StartElement(root): %v", err)
	}
	if err := enc.Attribute("", "id", "", "42"); err != nil {
		t.Fatalf("Attribute(id): %v", err)
	}
	if err := enc.Characters("hello"); err != nil {
		t.Fatalf("Characters: %v", err)
	}
	if err := enc.EndElement(); err != nil {
		t.Fatalf("EndElement: %v", err)
	}
	if err := enc.EndDocument(); err != nil {
		t.Fatalf("EndDocument: %v", err)
	}

	_, g2 := newSchemaLessRoundTrip(cfg)
	dec := NewDecoder(bitio.NewReader(bytes.NewReader(buf.Bytes())), g2, cfg, nil)
	if err := dec.StartDocument(); err != nil {
		t.Fatalf("decode StartDocument: %v", err)
	}
	uri, local, _, err := dec.StartElement()
	if err != nil {
		t.Fatalf("decode StartElement: %v", err)
	}
	if uri != "" || local != "root" {
		t.Fatalf("got element (%q,%q), want (\"\",\"root\")", uri, local)
	}
	auri, alocal, aval, err := dec.Attribute()
	if err != nil {
		t.Fatalf("decode Attribute: %v", err)
	}
	if alocal != "id" || aval != "42" || auri != "" {
		t.Fatalf("got attribute (%q,%q)=%q, want (\"\",\"id\")=\"42\"", auri, alocal, aval)
	}
	ch, err := dec.Characters()
	if err != nil {
		t.Fatalf("decode Characters: %v", err)
	}
	if ch != "hello" {
		t.Fatalf("got characters %q, want \"hello\"", ch)
	}
	if err := dec.EndElement(); err != nil {
		t.Fatalf("decode EndElement: %v", err)
	}
	if err := dec.EndDocument(); err != nil {
		t.Fatalf("decode EndDocument: %v", err)
	}
}

func TestNestedElementsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	_, g := newSchemaLessRoundTrip(cfg)

	var buf bytes.Buffer
	enc := NewEncoder(bitio.NewWriter(&buf), g, cfg, nil)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	must(enc.StartDocument())
	must(enc.StartElement("", "outer", ""))
	must(enc.StartElement("", "inner", ""))
	must(enc.Characters("leaf"))
	must(enc.EndElement())
	must(enc.StartElement("", "inner", ""))
	must(enc.Characters("leaf2"))
	must(enc.EndElement())
	must(enc.EndElement())
	must(enc.EndDocument())

	_, g2 := newSchemaLessRoundTrip(cfg)
	dec := NewDecoder(bitio.NewReader(bytes.NewReader(buf.Bytes())), g2, cfg, nil)
	mustD := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	mustD(dec.StartDocument())
	_, outer, _, err := dec.StartElement()
	mustD(err)
	if outer != "outer" {
		t.Fatalf("got %q, want outer", outer)
	}
	_, inner1, _, err := dec.StartElement()
	mustD(err)
	if inner1 != "inner" {
		t.Fatalf("got %q, want inner", inner1)
	}
	v1, err := dec.Characters()
	mustD(err)
	if v1 != "leaf" {
		t.Fatalf("got %q, want leaf", v1)
	}
	mustD(dec.EndElement())
	_, inner2, _, err := dec.StartElement()
	mustD(err)
	if inner2 != "inner" {
		t.Fatalf("got %q, want inner", inner2)
	}
	v2, err := dec.Characters()
	mustD(err)
	if v2 != "leaf2" {
		t.Fatalf("got %q, want leaf2", v2)
	}
	mustD(dec.EndElement())
	mustD(dec.EndElement())
	mustD(dec.EndDocument())
}

func TestCommentsRequireFidelity(t *testing.T) {
	cfg := DefaultConfig()
	_, g := newSchemaLessRoundTrip(cfg)
	var buf bytes.Buffer
	enc := NewEncoder(bitio.NewWriter(&buf), g, cfg, nil)
	if err := enc.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if err := enc.Comment("hi"); err == nil {
		t.Fatalf("Comment succeeded without comment fidelity")
	}
}

func TestCommentsRoundTripWithFidelity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Comments = true
	_, g := newSchemaLessRoundTrip(cfg)

	var buf bytes.Buffer
	enc := NewEncoder(bitio.NewWriter(&buf), g, cfg, nil)
	if err := enc.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if err := enc.Comment("a remark"); err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if err := enc.StartElement("", "root", ""); err != nil {
		t.Fatalf("StartElement: %v", err)
	}
	if err := enc.EndElement(); err != nil {
		t.Fatalf("EndElement: %v", err)
	}
	if err := enc.EndDocument(); err != nil {
		t.Fatalf("EndDocument: %v", err)
	}

	_, g2 := newSchemaLessRoundTrip(cfg)
	dec := NewDecoder(bitio.NewReader(bytes.NewReader(buf.Bytes())), g2, cfg, nil)
	if err := dec.StartDocument(); err != nil {
		t.Fatalf("decode StartDocument: %v", err)
	}
	text, err := dec.Comment()
	if err != nil {
		t.Fatalf("decode Comment: %v", err)
	}
	if text != "a remark" {
		t.Fatalf("got comment %q, want %q", text, "a remark")
	}
	if _, _, _, err := dec.StartElement(); err != nil {
		t.Fatalf("decode StartElement: %v", err)
	}
	if err := dec.EndElement(); err != nil {
		t.Fatalf("decode EndElement: %v", err)
	}
	if err := dec.EndDocument(); err != nil {
		t.Fatalf("decode EndDocument: %v", err)
	}
}

func TestSelfContainedFragmentGetsFreshValuePartition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelfContained = true
	_, g := newSchemaLessRoundTrip(cfg)

	var buf bytes.Buffer
	enc := NewEncoder(bitio.NewWriter(&buf), g, cfg, nil)
	if err := enc.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if err := enc.StartElement("", "root", ""); err != nil {
		t.Fatalf("StartElement: %v", err)
	}
	if err := enc.Attribute("", "a", "", "shared"); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	outerGlobalBefore := enc.Values.GlobalSize()
	if err := enc.BeginSelfContained(); err != nil {
		t.Fatalf("BeginSelfContained: %v", err)
	}
	if enc.Values.GlobalSize() != 0 {
		t.Fatalf("fragment string table not fresh: size=%d", enc.Values.GlobalSize())
	}
	if err := enc.StartDocument(); err != nil {
		t.Fatalf("fragment StartDocument: %v", err)
	}
	if err := enc.StartElement("", "frag", ""); err != nil {
		t.Fatalf("fragment StartElement: %v", err)
	}
	if err := enc.Characters("shared"); err != nil {
		t.Fatalf("fragment Characters: %v", err)
	}
	if err := enc.EndElement(); err != nil {
		t.Fatalf("fragment EndElement: %v", err)
	}
	if err := enc.EndDocument(); err != nil {
		t.Fatalf("fragment EndDocument: %v", err)
	}
	if err := enc.EndSelfContained(); err != nil {
		t.Fatalf("EndSelfContained: %v", err)
	}
	if enc.Values.GlobalSize() != outerGlobalBefore {
		t.Fatalf("outer string table not restored: got %d, want %d", enc.Values.GlobalSize(), outerGlobalBefore)
	}
	if err := enc.EndElement(); err != nil {
		t.Fatalf("EndElement: %v", err)
	}
	if err := enc.EndDocument(); err != nil {
		t.Fatalf("EndDocument: %v", err)
	}
}

func TestStrictModeRejectsUndeclaredElement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	_, g := newSchemaLessRoundTrip(cfg)
	var buf bytes.Buffer
	enc := NewEncoder(bitio.NewWriter(&buf), g, cfg, nil)
	if err := enc.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if err := enc.StartElement("", "root", ""); err == nil {
		t.Fatalf("StartElement succeeded in strict mode against an empty schema")
	}
}
