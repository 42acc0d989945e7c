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
	"github.com/kevin-314159/exificient-core/exierr"
	"github.com/kevin-314159/exificient-core/grammar"
	"github.com/kevin-314159/exificient-core/qname"
	"github.com/kevin-314159/exificient-core/strtable"
)

// base holds the state an Encoder and Decoder share: the grammar boundary
// object (spec §6.4), the name registry it exposes, the value string table,
// the element-context stack, and the currently-selected grammar (spec §4.6:
// "a current grammar pointer (top-of-stack's grammar)").
type base struct {
	Grammars grammar.Grammars
	Registry *qname.Registry
	Values   *strtable.Table
	Config   Config
	Stack    *Stack
	Warn     exierr.WarnHandler

	// docGrammar is the current grammar pointer used at document/fragment
	// level, i.e. whenever the element stack is empty. Once any element is
	// on the stack, its own frame's Grammar field plays this role instead
	// (spec §4.6: "a current grammar pointer (top-of-stack's grammar)").
	docGrammar grammar.GrammarID

	// scSaved holds outer-scope (Values, docGrammar, Stack) triples while a
	// self-contained fragment (spec supplemental feature, SPEC_FULL.md §3)
	// is being coded with its own fresh string-table scope.
	scSaved []scFrame
}

type scFrame struct {
	values     *strtable.Table
	docGrammar grammar.GrammarID
	stack      *Stack
}

func newBase(g grammar.Grammars, cfg Config, warn exierr.WarnHandler) *base {
	return &base{
		Grammars: g,
		Registry: g.Context().Registry,
		Values:   strtable.New(cfg.LocalValuePartitions, cfg.ValuePartitionCapacity, cfg.ValueMaxLength),
		Config:   cfg,
		Stack:    NewStack(),
		Warn:     warn,
	}
}

func (b *base) warnf(op, msg string) {
	if b.Warn != nil {
		b.Warn(op, msg)
	}
}

// InitForEachRun resets every piece of run-scoped state: the element
// stack, the value string table, the QName registry's runtime entries, and
// (for a schema-less Grammars) the learned built-in grammar productions
// (spec §5).
func (b *base) InitForEachRun() {
	b.Stack.Reset()
	b.Values.Reset()
	b.Registry.Reset()
	if sl, ok := b.Grammars.(*grammar.SchemaLess); ok {
		sl.Reset()
	}
	b.scSaved = b.scSaved[:0]
	b.docGrammar = b.Grammars.DocumentGrammar()
}

// currentGrammarID returns the grammar handle in effect for the next event:
// the top-of-stack element's own grammar pointer, or docGrammar when the
// stack is empty (spec §4.6).
func (b *base) currentGrammarID() grammar.GrammarID {
	if top := b.Stack.Top(); top != nil {
		return top.Grammar
	}
	return b.docGrammar
}

// setCurrentGrammarID reassigns whichever pointer currentGrammarID reads
// from, implementing the "current grammar pointer (mutable: assigned when
// transitioning)" invariant of spec §3.
func (b *base) setCurrentGrammarID(id grammar.GrammarID) {
	if top := b.Stack.Top(); top != nil {
		top.Grammar = id
		return
	}
	b.docGrammar = id
}

func (b *base) currentGrammar() *grammar.Grammar {
	return b.Grammars.Arena().Get(b.currentGrammarID())
}

// beginSelfContained swaps in a fresh string-table scope and an empty
// element stack positioned at the fragment grammar, so the fragment that
// follows can be decoded (or skipped) independently of the outer document's
// value partitions, per the original implementation's SelfContainedStream
// (SPEC_FULL.md §3). The caller aligns the channel first.
func (b *base) beginSelfContained() {
	b.scSaved = append(b.scSaved, scFrame{values: b.Values, docGrammar: b.docGrammar, stack: b.Stack})
	b.Values = strtable.New(b.Config.LocalValuePartitions, b.Config.ValuePartitionCapacity, b.Config.ValueMaxLength)
	b.Stack = NewStack()
	b.docGrammar = b.Grammars.FragmentGrammar()
}

// endSelfContained restores the outer string-table scope and element stack
// after a self-contained fragment has been fully coded.
func (b *base) endSelfContained() {
	n := len(b.scSaved)
	f := b.scSaved[n-1]
	b.scSaved = b.scSaved[:n-1]
	b.Values = f.values
	b.docGrammar = f.docGrammar
	b.Stack = f.stack
}
