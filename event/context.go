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

// Package event implements the EXI event coder (component C6): the
// element-context stack and the encode/decode event loop that drives the
// grammar state machine and dispatches values to the channel codec and
// string table.
package event

import (
	"github.com/kevin-314159/exificient-core/grammar"
	"github.com/kevin-314159/exificient-core/qname"
)

// NSDecl is a single namespace declaration carried by an element context
// when prefix fidelity is enabled (spec §4.6).
type NSDecl struct {
	Prefix       string
	URI          string
	LocalElement bool
}

// ElementContext is one stack frame: the element's QName, its current
// grammar (mutable — reassigned on every event coded while this element is
// on top of the stack, exactly as spec §3 describes), its prefix, and its
// declarations.
type ElementContext struct {
	QName         *qname.QNameContext
	Grammar       grammar.GrammarID
	Prefix        string
	PreserveSpace bool
	NSDecls       []NSDecl
}

// Stack is the element-context stack (spec §4.6: "initial capacity 16,
// grown by doubling"). Go's append already grows slices geometrically, so
// Stack simply preallocates the initial capacity spec.md names and leaves
// growth to append.
type Stack struct {
	frames []ElementContext
}

// NewStack returns an empty Stack with the spec's initial capacity.
func NewStack() *Stack {
	return &Stack{frames: make([]ElementContext, 0, 16)}
}

// Push appends a new frame.
func (s *Stack) Push(f ElementContext) { s.frames = append(s.frames, f) }

// Pop removes and returns the top frame. It panics if the stack is empty;
// callers must pair every EndElement with a preceding StartElement, which
// the grammar layer already enforces (an EE production is only reachable
// from within some element's content grammar).
func (s *Stack) Pop() ElementContext {
	n := len(s.frames)
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f
}

// Top returns a pointer to the current frame, or nil if the stack is
// empty (i.e. at document level).
func (s *Stack) Top() *ElementContext {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// Len reports the current stack depth.
func (s *Stack) Len() int { return len(s.frames) }

// Reset empties the stack, retaining its backing array (spec §5,
// InitForEachRun).
func (s *Stack) Reset() { s.frames = s.frames[:0] }
