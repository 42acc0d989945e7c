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

import (
	"testing"

	"github.com/kevin-314159/exificient-core/qname"
)

func TestDocumentGrammarStartsWithSingleSDProduction(t *testing.T) {
	arena := NewArena()
	b := NewBuilder(arena, Fidelity{})
	doc := arena.Get(b.BuildDocument())
	if doc.NumberOfProductions() != 1 {
		t.Fatalf("got %d productions, want 1", doc.NumberOfProductions())
	}
	if doc.Productions[0].Event.Type != SD {
		t.Fatalf("got event %v, want SD", doc.Productions[0].Event.Type)
	}
}

func TestEventCodeWidthGrowsWithTierPopulation(t *testing.T) {
	arena := NewArena()
	g := arena.Get(arena.New(false))
	g.Productions = append(g.Productions, Production{Event: Event{Type: EE}, Next: g.id})
	if w := g.Part1Width(); w != 0 {
		t.Fatalf("single production should need 0 bits, got %d", w)
	}
	if _, ok := g.Part2Width(); ok {
		t.Fatalf("expected no part 2 with an empty tier 2/3")
	}

	g.Productions = append(g.Productions, Production{Event: Event{Type: AT_GENERIC}, Next: g.id})
	if w := g.Part1Width(); w != 1 {
		t.Fatalf("two tiers should widen part 1 to 1 bit (escape symbol), got %d", w)
	}
	w2, ok := g.Part2Width()
	if !ok || w2 != 0 {
		t.Fatalf("single tier-2 production should need part2 present at 0 bits, got ok=%v w=%d", ok, w2)
	}
}

func TestEventCodeRoundTripsThroughDecodeEventCode(t *testing.T) {
	arena := NewArena()
	g := arena.Get(arena.New(false))
	g.Productions = []Production{
		{Event: Event{Type: EE}},
		{Event: Event{Type: AT_GENERIC}},
		{Event: Event{Type: SE_GENERIC_UNDECLARED}},
	}
	for idx := range g.Productions {
		code, err := g.ComputeEventCode(idx)
		if err != nil {
			t.Fatalf("ComputeEventCode(%d): %v", idx, err)
		}
		var p2, p3 *int
		if code.HasPart2 {
			p2 = &code.Part2
		}
		if code.HasPart3 {
			p3 = &code.Part3
		}
		got, err := g.DecodeEventCode(code.Part1, p2, p3)
		if err != nil {
			t.Fatalf("DecodeEventCode: %v", err)
		}
		if got != idx {
			t.Fatalf("round-trip mismatch: encoded index %d, decoded index %d", idx, got)
		}
	}
}

func TestLearnRespectsMaxBuiltInProductionsCap(t *testing.T) {
	arena := NewArena()
	arena.MaxBuiltInProductions = 1
	g := arena.Get(arena.New(false))

	if !g.Learn(Event{Type: EE}, g.id) {
		t.Fatalf("first Learn should succeed under cap 1")
	}
	if g.Learn(Event{Type: CH}, g.id) {
		t.Fatalf("second Learn should be refused once cap is reached")
	}
	if g.NumberOfProductions() != 1 {
		t.Fatalf("got %d productions, want 1 after capped learning", g.NumberOfProductions())
	}
}

func TestElementGrammarsForCachesOnQNameContext(t *testing.T) {
	reg := qname.NewRegistry()
	qn := reg.Intern("http://example.com", "a")
	arena := NewArena()
	b := NewBuilder(arena, Fidelity{})

	first := b.ElementGrammarsFor(qn)
	second := b.ElementGrammarsFor(qn)
	if first != second {
		t.Fatalf("expected the same *ElementGrammars on repeat lookup")
	}
}

func TestElementGrammarsForFallsBackPastCap(t *testing.T) {
	reg := qname.NewRegistry()
	arena := NewArena()
	arena.MaxBuiltInElementGrammars = 1
	b := NewBuilder(arena, Fidelity{})

	qa := reg.Intern("", "a")
	qbNode := reg.Intern("", "b")
	ega := b.ElementGrammarsFor(qa)
	egb := b.ElementGrammarsFor(qbNode)
	if ega == egb {
		t.Fatalf("first two elements should not yet share a grammar pair")
	}

	qc := reg.Intern("", "c")
	egc := b.ElementGrammarsFor(qc)
	if *egb != *egc {
		t.Fatalf("once the cap is exhausted, further elements should share the fallback pair")
	}
}

func TestSchemaLessResetClearsLearnedProductions(t *testing.T) {
	reg := qname.NewRegistry()
	sl := NewSchemaLess(reg, Fidelity{}, Caps{MaxBuiltInProductions: Unbounded, MaxBuiltInElementGrammars: Unbounded})
	docContentID := sl.Arena().Get(sl.DocumentGrammar()).Productions[0].Next
	docContent := sl.Arena().Get(docContentID)
	before := docContent.NumberOfProductions()
	docContent.Learn(Event{Type: CM}, docContentID)
	if docContent.NumberOfProductions() != before+1 {
		t.Fatalf("expected Learn to add a production")
	}

	sl.Reset()
	freshDocContentID := sl.Arena().Get(sl.DocumentGrammar()).Productions[0].Next
	freshDocContent := sl.Arena().Get(freshDocContentID)
	if freshDocContent.NumberOfProductions() != before {
		t.Fatalf("expected Reset to rebuild without the learned production, got %d want %d", freshDocContent.NumberOfProductions(), before)
	}
}
