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

import "github.com/kevin-314159/exificient-core/exierr"

// Unbounded is the single internal sentinel for "no cap", used for both
// MaxBuiltInProductions and MaxBuiltInElementGrammars regardless of which
// wire representation produced it (spec §9 open question: the source mixes
// -1, in maxBuiltInProductions/maxBuiltInElementGrammars, with 0, in the
// profile-decimal encoding; both normalize to this one value here).
const Unbounded = -1

// GrammarID is a stable handle into an Arena. Productions hold next-state
// handles rather than pointers so that cyclic grammar graphs (fragment
// loops, repeated element content referring back to themselves) need no
// reference-counted cycle (spec §9, "Cyclic grammar graphs").
type GrammarID int

// Production binds one Event to the grammar reached after it.
type Production struct {
	Event Event
	Next  GrammarID
}

// Grammar is a finite, ordered set of Productions (spec §3, "Grammar").
// SchemaInformed grammars are immutable and shared; built-in grammars may
// grow via Learn, subject to the arena's caps.
type Grammar struct {
	id             GrammarID
	arena          *Arena
	SchemaInformed bool
	Productions    []Production
}

// ID returns g's stable handle.
func (g *Grammar) ID() GrammarID { return g.id }

// NumberOfProductions returns the number of productions currently bound to
// g. This can grow between two consultations of a built-in grammar as
// learning occurs (spec §4.5).
func (g *Grammar) NumberOfProductions() int { return len(g.Productions) }

// Find returns the index of the production bound to ev, if any.
func (g *Grammar) Find(ev Event) (int, bool) {
	for i, p := range g.Productions {
		if p.Event.Equal(ev) {
			return i, true
		}
	}
	return -1, false
}

// tierCounts partitions g.Productions by EventType.tier(), returning the
// count in each tier in order. Only non-empty tiers contribute a part to
// the event code (spec §4.5: "second and third parts are emitted only when
// required by the current grammar's set of events").
func (g *Grammar) tierCounts() [3]int {
	var counts [3]int
	for _, p := range g.Productions {
		counts[p.Event.Type.tier()-1]++
	}
	return counts
}

func bitsFor(k int) uint {
	w := uint(0)
	for (1 << w) < k {
		w++
	}
	return w
}

// EventCode is a computed 1-, 2-, or 3-part event code (spec §4.5). Widths
// are recomputed on every call to ComputeEventCode because built-in
// grammars may have learned new productions since the last consultation.
//
// Each part's alphabet reserves one extra symbol, equal to the count of
// that tier, to mean "escape to the next part" whenever a later tier is
// non-empty; this is what lets a 1-part code widen to 2 or 3 parts only
// when the grammar actually has productions in those tiers.
type EventCode struct {
	Part1    int
	Width1   uint
	HasPart2 bool
	Part2    int
	Width2   uint
	HasPart3 bool
	Part3    int
	Width3   uint
}

func alphabet(count int, hasEscape bool) int {
	if hasEscape {
		return count + 1
	}
	return count
}

// Part1Width reports the bit width of part 1 for g's current productions.
func (g *Grammar) Part1Width() uint {
	c := g.tierCounts()
	return bitsFor(max1(alphabet(c[0], c[1] > 0 || c[2] > 0)))
}

// Part2Width reports the bit width of part 2, and whether part 2 applies at
// all (it does whenever tier 2 or tier 3 has any productions).
func (g *Grammar) Part2Width() (width uint, ok bool) {
	c := g.tierCounts()
	if c[1] == 0 && c[2] == 0 {
		return 0, false
	}
	return bitsFor(max1(alphabet(c[1], c[2] > 0))), true
}

// Part3Width reports the bit width of part 3, and whether part 3 applies
// (tier 3 has any productions).
func (g *Grammar) Part3Width() (width uint, ok bool) {
	c := g.tierCounts()
	if c[2] == 0 {
		return 0, false
	}
	return bitsFor(max1(c[2])), true
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ComputeEventCode returns the event code for the production at index idx
// within g's current Productions slice.
func (g *Grammar) ComputeEventCode(idx int) (EventCode, error) {
	if idx < 0 || idx >= len(g.Productions) {
		return EventCode{}, exierr.Errorf(exierr.InvariantViolation, "grammar.ComputeEventCode", nil)
	}
	c := g.tierCounts()
	tier := g.Productions[idx].Event.Type.tier()
	within := 0
	for i := 0; i < idx; i++ {
		if g.Productions[i].Event.Type.tier() == tier {
			within++
		}
	}

	code := EventCode{Width1: g.Part1Width()}
	switch tier {
	case 1:
		code.Part1 = within
		return code, nil
	case 2:
		code.Part1 = c[0]
		w2, _ := g.Part2Width()
		code.HasPart2, code.Width2, code.Part2 = true, w2, within
		return code, nil
	default: // tier 3
		code.Part1 = c[0]
		w2, _ := g.Part2Width()
		code.HasPart2, code.Width2, code.Part2 = true, w2, c[1]
		w3, _ := g.Part3Width()
		code.HasPart3, code.Width3, code.Part3 = true, w3, within
		return code, nil
	}
}

// DecodeEventCode resolves the parts read off the wire back to a production
// index. Pass part2/part3 as nil when the caller determined (via
// Part2Width/Part3Width, consulted *before* reading further bits) that the
// corresponding part is not present.
func (g *Grammar) DecodeEventCode(part1 int, part2, part3 *int) (int, error) {
	c := g.tierCounts()
	if part2 == nil {
		if part1 < 0 || part1 >= c[0] {
			return -1, exierr.Errorf(exierr.MalformedBitstream, "grammar.DecodeEventCode", nil)
		}
		return g.nthOfTier(1, part1), nil
	}
	if part1 != c[0] {
		return -1, exierr.Errorf(exierr.InvariantViolation, "grammar.DecodeEventCode", nil)
	}
	if part3 == nil {
		if *part2 < 0 || *part2 >= c[1] {
			return -1, exierr.Errorf(exierr.MalformedBitstream, "grammar.DecodeEventCode", nil)
		}
		return g.nthOfTier(2, *part2), nil
	}
	if *part2 != c[1] {
		return -1, exierr.Errorf(exierr.InvariantViolation, "grammar.DecodeEventCode", nil)
	}
	if *part3 < 0 || *part3 >= c[2] {
		return -1, exierr.Errorf(exierr.MalformedBitstream, "grammar.DecodeEventCode", nil)
	}
	return g.nthOfTier(3, *part3), nil
}

// TierCounts exposes the three tier population counts g.tierCounts()
// computes internally, so callers driving the actual bit reads (package
// event) can decide whether a decoded part-1/part-2 value is a genuine
// selection or the escape sentinel without duplicating the tiering rule.
func (g *Grammar) TierCounts() (tier1, tier2, tier3 int) {
	c := g.tierCounts()
	return c[0], c[1], c[2]
}

func (g *Grammar) nthOfTier(tier, n int) int {
	seen := 0
	for i, p := range g.Productions {
		if p.Event.Type.tier() == tier {
			if seen == n {
				return i
			}
			seen++
		}
	}
	return -1
}

// Learn appends a new production for ev, pointing to next, subject to the
// arena's MaxBuiltInProductions cap (spec §4.5, "Learning caps"). It is a
// no-op returning false if g is schema-informed, if ev is already bound, or
// if the cap has been reached.
func (g *Grammar) Learn(ev Event, next GrammarID) bool {
	if g.SchemaInformed {
		return false
	}
	if _, ok := g.Find(ev); ok {
		return false
	}
	if !g.arena.chargeProduction() {
		return false
	}
	g.Productions = append(g.Productions, Production{Event: ev, Next: next})
	return true
}

// Arena owns every Grammar minted during one codec run and enforces the two
// global learning caps (spec §4.5). It is the "stable integer handle"
// allocator called for in spec §9's cyclic-grammar-graph design note.
type Arena struct {
	grammars []*Grammar

	MaxBuiltInProductions     int // Unbounded, or a non-negative cap
	MaxBuiltInElementGrammars int // Unbounded, or a non-negative cap

	learnedProductions   int
	elementGrammarsUsed  int
}

// NewArena returns an empty Arena with both caps set to Unbounded.
func NewArena() *Arena {
	return &Arena{MaxBuiltInProductions: Unbounded, MaxBuiltInElementGrammars: Unbounded}
}

// New allocates a fresh Grammar in the arena and returns its handle.
func (a *Arena) New(schemaInformed bool) GrammarID {
	id := GrammarID(len(a.grammars))
	a.grammars = append(a.grammars, &Grammar{id: id, arena: a, SchemaInformed: schemaInformed})
	return id
}

// Get resolves a handle to its Grammar.
func (a *Arena) Get(id GrammarID) *Grammar { return a.grammars[id] }

func (a *Arena) chargeProduction() bool {
	if a.MaxBuiltInProductions != Unbounded && a.learnedProductions >= a.MaxBuiltInProductions {
		return false
	}
	a.learnedProductions++
	return true
}

// ChargeElementGrammar reports whether a new pair of built-in element
// grammars (start-tag content + element content) may still be minted under
// MaxBuiltInElementGrammars, incrementing the counter if so.
func (a *Arena) ChargeElementGrammar() bool {
	if a.MaxBuiltInElementGrammars != Unbounded && a.elementGrammarsUsed >= a.MaxBuiltInElementGrammars {
		return false
	}
	a.elementGrammarsUsed++
	return true
}

// Reset clears the arena entirely, discarding every minted grammar and
// learning counter. Schema-informed grammars, being externally supplied and
// re-registered by the caller after Reset, are not preserved by the arena
// itself (spec §5's InitForEachRun contract is implemented one level up, in
// package event, which retains its own reference to the schema-informed
// root grammars across Reset calls).
func (a *Arena) Reset() {
	a.grammars = a.grammars[:0]
	a.learnedProductions = 0
	a.elementGrammarsUsed = 0
}
