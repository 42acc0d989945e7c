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

// Package header implements the EXI header codec (spec §4.7): the leading
// cookie/distinguishing-bits/version envelope, and the nested options
// document that negotiates every fidelity and coding-mode choice the body
// (package event, by way of package grammar) needs.
package header

import (
	"github.com/google/uuid"
	"github.com/kevin-314159/exificient-core/grammar"
)

// TypeRepresentation overrides the default codec for one schema datatype
// with a named representation (spec §6.5, "datatypeRepresentationMap").
type TypeRepresentation struct {
	SchemaType         QName
	RepresentationType QName
}

// QName is a plain, registry-independent (uri, local) pair. The header
// document never resolves names against a qname.Registry: it is read before
// any body grammar exists, so it carries names as bare strings rather than
// the interned QNameContext handles package qname uses for the body stream.
type QName struct {
	URI   string
	Local string
}

// Options is the fully decoded content of an EXI header (spec §4.7, §6.5).
// It is independent of any particular Grammars implementation; EventConfig
// projects it into the narrower shapes package event and package grammar
// need.
type Options struct {
	// IncludeCookie controls whether EncodeHeader writes the four-byte
	// "$EXI" cookie. DecodeHeader always recognizes it if present,
	// regardless of this field.
	IncludeCookie bool

	// Alignment/coding mode (spec §6.3). Compression and PreCompress are
	// mutually exclusive with each other and with BytePacked; at most one
	// of BytePacked, PreCompress, Compression should be set.
	// A caller that sets none gets bit-packed, the EXI default.
	BytePacked  bool
	PreCompress bool
	Compression bool

	Fragment bool

	SchemaIDPresent bool   // whether a schemaId element occurred at all
	SchemaID        string // meaningful only if SchemaIDPresent && !SchemaLess
	SchemaLess      bool   // xsi:nil="true" on schemaId: explicitly schema-less

	Strict        bool
	Comments      bool
	PIs           bool
	DTD           bool
	Prefixes      bool
	LexicalValues bool
	SelfContained bool

	BlockSizeSet              bool
	BlockSize                 int
	ValueMaxLengthSet         bool
	ValueMaxLength            int
	ValuePartitionCapacitySet bool
	ValuePartitionCapacity    int

	TypeRepresentations []TypeRepresentation

	ProfileSet                bool
	LocalValuePartitions      bool
	MaxBuiltInElementGrammars int // grammar.Unbounded, or a non-negative cap
	MaxBuiltInProductions     int // grammar.Unbounded, or a non-negative cap
}

// DefaultOptions returns the Options an EXI stream with no options document
// implies: bit-packed, every fidelity toggle off, every cap unbounded (spec
// §4.7 step 3, "options present" = 0). Local value partitions default to on:
// that is the standard behavior absent a profile element (spec §6.5), and
// the string-table bit-exactness examples in spec §8 assume it.
func DefaultOptions() Options {
	return Options{
		LocalValuePartitions:      true,
		MaxBuiltInElementGrammars: grammar.Unbounded,
		MaxBuiltInProductions:     grammar.Unbounded,
	}
}

// NewSchemaID mints a fresh schemaId (spec §6.5) for a caller that wants to
// tag a stream as belonging to a distinct, generated schema identity rather
// than supplying one of its own (e.g. an ephemeral or per-run schema).
func NewSchemaID() string {
	return uuid.NewString()
}
