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

package grammar

import "github.com/kevin-314159/exificient-core/qname"

// GrammarContext is the boundary object the schema compiler (an external
// collaborator per spec §1) hands to the core: the QName/URI registry a
// schema-informed grammar was built against, so the core can resolve
// per-QName grammar associations without knowing how the schema compiler
// produced them (spec §6.4).
type GrammarContext struct {
	Registry *qname.Registry
}

// Grammars is the abstract boundary consumed by the event coder (spec
// §6.4). A schema compiler that has already run produces a Grammars value;
// SchemaLess (below) is the built-in implementation used when no schema
// was supplied.
type Grammars interface {
	Arena() *Arena
	DocumentGrammar() GrammarID
	FragmentGrammar() GrammarID
	IsSchemaInformed() bool
	SchemaID() string
	Context() *GrammarContext
	Builder() *Builder
}

// SchemaLess is the built-in (schema-less) Grammars implementation: its
// document and fragment grammars are the built-in ones of spec §4.5, and
// its Builder mints per-element grammar pairs lazily as new element names
// are encountered.
type SchemaLess struct {
	arena    *Arena
	builder  *Builder
	document GrammarID
	fragment GrammarID
	ctx      *GrammarContext
}

// Caps bundles the two learning caps of spec §4.5, both normalized to
// Unbounded (-1) meaning "no cap" regardless of which wire representation
// produced them (spec §9 open question; see also header.DecodeProfile).
type Caps struct {
	MaxBuiltInProductions     int
	MaxBuiltInElementGrammars int
}

// NewSchemaLess builds a fresh built-in grammar set using registry for
// QName resolution and fidelity to decide which implicit productions to
// include (spec §6.5).
func NewSchemaLess(registry *qname.Registry, fidelity Fidelity, caps Caps) *SchemaLess {
	arena := NewArena()
	arena.MaxBuiltInProductions = caps.MaxBuiltInProductions
	arena.MaxBuiltInElementGrammars = caps.MaxBuiltInElementGrammars
	builder := NewBuilder(arena, fidelity)
	return &SchemaLess{
		arena:    arena,
		builder:  builder,
		document: builder.BuildDocument(),
		fragment: builder.BuildFragment(),
		ctx:      &GrammarContext{Registry: registry},
	}
}

func (s *SchemaLess) Arena() *Arena              { return s.arena }
func (s *SchemaLess) DocumentGrammar() GrammarID { return s.document }
func (s *SchemaLess) FragmentGrammar() GrammarID { return s.fragment }
func (s *SchemaLess) IsSchemaInformed() bool     { return false }
func (s *SchemaLess) SchemaID() string           { return "" }
func (s *SchemaLess) Context() *GrammarContext   { return s.ctx }
func (s *SchemaLess) Builder() *Builder          { return s.builder }

// Reset rebuilds the built-in document/fragment grammars and clears all
// learned productions and per-element grammar caches, matching the
// codec-wide InitForEachRun contract (spec §5). Schema-informed Grammars
// implementations need no Reset: their grammars are immutable.
func (s *SchemaLess) Reset() {
	s.arena.Reset()
	s.builder.genericBuilt = false
	s.document = s.builder.BuildDocument()
	s.fragment = s.builder.BuildFragment()
}
