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

// Fidelity toggles which implicit productions a built-in grammar starts
// with (spec §6.5: comments, pis, dtd, prefixes, selfContained each add
// productions that would otherwise be absent).
type Fidelity struct {
	Comments      bool
	PIs           bool
	DTD           bool
	Prefixes      bool
	SelfContained bool
}

// ElementGrammars is the pair of built-in grammars associated with one
// element QName once it has been learned: the start-tag content grammar
// (attributes may still appear) and the element content grammar (only
// children/characters/EE remain). Cached on the owning QNameContext's
// GlobalStartElement field so repeated occurrences of the same element
// reuse it instead of re-learning (spec §4.5, "Built-in versus
// schema-informed").
type ElementGrammars struct {
	StartTagContent GrammarID
	ElementContent  GrammarID
}

// Builder constructs and wires the built-in document, fragment, and
// per-element grammars for one codec run, honoring the arena's caps and a
// Fidelity configuration fixed when the Builder is constructed.
type Builder struct {
	Arena    *Arena
	Fidelity Fidelity

	// genericStart/genericContent back a shared element-grammar pair used
	// once MaxBuiltInElementGrammars is exhausted, so learning an event for
	// a brand-new element name never fails outright: it just stops being
	// distinguished from other overflow elements.
	genericStart   GrammarID
	genericContent GrammarID
	genericBuilt   bool
}

// NewBuilder returns a Builder over arena using fidelity.
func NewBuilder(arena *Arena, fidelity Fidelity) *Builder {
	return &Builder{Arena: arena, Fidelity: fidelity}
}

// BuildDocument returns the handle of a fresh built-in Document grammar
// (spec §4.5, §9): SD leads to DocContent, which accepts a root SE(*) (or
// CM/PI first, if enabled) leading to DocEnd, which accepts ED.
func (b *Builder) BuildDocument() GrammarID {
	a := b.Arena
	docEnd := a.New(false)
	docContent := a.New(false)
	doc := a.New(false)

	end := a.Get(docEnd)
	end.Productions = append(end.Productions, Production{Event: Event{Type: ED}, Next: end.id})
	if b.Fidelity.Comments {
		end.Productions = append(end.Productions, Production{Event: Event{Type: CM}, Next: docEnd})
	}
	if b.Fidelity.PIs {
		end.Productions = append(end.Productions, Production{Event: Event{Type: PI}, Next: docEnd})
	}

	content := a.Get(docContent)
	content.Productions = append(content.Productions, Production{Event: Event{Type: SE_GENERIC_UNDECLARED}, Next: docEnd})
	if b.Fidelity.Comments {
		content.Productions = append(content.Productions, Production{Event: Event{Type: CM}, Next: docContent})
	}
	if b.Fidelity.PIs {
		content.Productions = append(content.Productions, Production{Event: Event{Type: PI}, Next: docContent})
	}

	root := a.Get(doc)
	root.Productions = append(root.Productions, Production{Event: Event{Type: SD}, Next: docContent})
	return doc
}

// BuildFragment returns the handle of a fresh built-in Fragment grammar
// (spec §9's "self-contained fragments" and §6.5 selfContained option): SD
// leads to FragmentContent, which accepts any number of root-level SE(*)
// events (each returning to itself) before ED.
func (b *Builder) BuildFragment() GrammarID {
	a := b.Arena
	fragContent := a.New(false)
	frag := a.New(false)

	content := a.Get(fragContent)
	content.Productions = append(content.Productions,
		Production{Event: Event{Type: SE_GENERIC_UNDECLARED}, Next: fragContent},
		Production{Event: Event{Type: ED}, Next: fragContent},
	)
	if b.Fidelity.Comments {
		content.Productions = append(content.Productions, Production{Event: Event{Type: CM}, Next: fragContent})
	}
	if b.Fidelity.PIs {
		content.Productions = append(content.Productions, Production{Event: Event{Type: PI}, Next: fragContent})
	}

	root := a.Get(frag)
	root.Productions = append(root.Productions, Production{Event: Event{Type: SD}, Next: fragContent})
	return frag
}

func (b *Builder) buildElementPair() (start, content GrammarID) {
	a := b.Arena
	content = a.New(false)
	start = a.New(false)

	c := a.Get(content)
	c.Productions = append(c.Productions,
		Production{Event: Event{Type: EE}, Next: content},
		Production{Event: Event{Type: SE_GENERIC_UNDECLARED}, Next: content},
		Production{Event: Event{Type: CH_GENERIC_UNDECLARED}, Next: content},
	)
	if b.Fidelity.Comments {
		c.Productions = append(c.Productions, Production{Event: Event{Type: CM}, Next: content})
	}
	if b.Fidelity.PIs {
		c.Productions = append(c.Productions, Production{Event: Event{Type: PI}, Next: content})
	}

	s := a.Get(start)
	s.Productions = append(s.Productions,
		Production{Event: Event{Type: EE}, Next: content},
		Production{Event: Event{Type: AT_GENERIC_UNDECLARED}, Next: start},
		Production{Event: Event{Type: SE_GENERIC_UNDECLARED}, Next: content},
		Production{Event: Event{Type: CH_GENERIC_UNDECLARED}, Next: content},
	)
	if b.Fidelity.Prefixes {
		s.Productions = append(s.Productions, Production{Event: Event{Type: NS_DECL}, Next: start})
	}
	if b.Fidelity.SelfContained {
		s.Productions = append(s.Productions, Production{Event: Event{Type: SC}, Next: content})
	}
	return start, content
}

// ElementGrammarsFor returns the built-in start-tag/element-content pair for
// qn, minting one on first use (subject to MaxBuiltInElementGrammars) and
// caching it on qn.GlobalStartElement thereafter. Once the cap is reached,
// every further new element name shares one fallback pair rather than
// failing (spec §4.5: caps stop learning, they do not stop encoding).
func (b *Builder) ElementGrammarsFor(qn *qname.QNameContext) *ElementGrammars {
	if eg, ok := qn.GlobalStartElement.(*ElementGrammars); ok && eg != nil {
		return eg
	}
	if b.Arena.ChargeElementGrammar() {
		start, content := b.buildElementPair()
		eg := &ElementGrammars{StartTagContent: start, ElementContent: content}
		qn.GlobalStartElement = eg
		return eg
	}
	if !b.genericBuilt {
		b.genericStart, b.genericContent = b.buildElementPair()
		b.genericBuilt = true
	}
	return &ElementGrammars{StartTagContent: b.genericStart, ElementContent: b.genericContent}
}
