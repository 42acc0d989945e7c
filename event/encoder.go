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
	"github.com/kevin-314159/exificient-core/bitio"
	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/exierr"
	"github.com/kevin-314159/exificient-core/grammar"
	"github.com/kevin-314159/exificient-core/qname"
)

// Encoder drives the grammar state machine forward, writing events to an
// underlying channel (spec §4.6).
type Encoder struct {
	*base
	Ch *channel.Writer
}

// NewEncoder returns an Encoder over w, using g as the grammar boundary and
// cfg as the running configuration. It calls InitForEachRun once so the
// returned Encoder is immediately usable.
func NewEncoder(w *bitio.Writer, g grammar.Grammars, cfg Config, warn exierr.WarnHandler) *Encoder {
	e := &Encoder{base: newBase(g, cfg, warn), Ch: channel.NewWriter(w, cfg.Mode)}
	e.InitForEachRun()
	return e
}

func (e *Encoder) emitEventCode(cur *grammar.Grammar, idx int) error {
	code, err := cur.ComputeEventCode(idx)
	if err != nil {
		return err
	}
	if err := e.Ch.WriteNBitUint(uint64(code.Part1), code.Width1); err != nil {
		return err
	}
	if code.HasPart2 {
		if err := e.Ch.WriteNBitUint(uint64(code.Part2), code.Width2); err != nil {
			return err
		}
	}
	if code.HasPart3 {
		if err := e.Ch.WriteNBitUint(uint64(code.Part3), code.Width3); err != nil {
			return err
		}
	}
	return nil
}

// StartDocument emits the SD event, which every document/fragment grammar
// begins with as its sole tier-1 production.
func (e *Encoder) StartDocument() error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.SD})
	if !ok {
		return exierr.Errorf(exierr.InvariantViolation, "event.StartDocument", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	e.setCurrentGrammarID(cur.Productions[idx].Next)
	return nil
}

// EndDocument emits the ED event and flushes the channel's bit writer.
func (e *Encoder) EndDocument() error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.ED})
	if !ok {
		return exierr.Errorf(exierr.MalformedBitstream, "event.EndDocument", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	return e.Flush()
}

// Flush aligns and flushes the underlying bit stream.
func (e *Encoder) Flush() error { return e.Ch.Flush() }

// pushChild advances the current (parent-level) grammar pointer past the SE
// production just coded, then pushes a new frame for the child whose own
// grammar pointer starts at childStart. Popping the frame later naturally
// resumes the parent's now-advanced pointer (spec §3, §4.6).
func (e *Encoder) pushChild(qn *qname.QNameContext, prefix string, afterSE, childStart grammar.GrammarID) {
	e.setCurrentGrammarID(afterSE)
	e.Stack.Push(ElementContext{QName: qn, Grammar: childStart, Prefix: prefix})
}

// StartElement emits an SE event for (uri, local), learning a new built-in
// production if the grammar does not already declare this element (spec
// §4.5, §4.6).
func (e *Encoder) StartElement(uri, local, prefix string) error {
	cur := e.currentGrammar()

	if qn, ok := e.Registry.Lookup(uri, local); ok {
		if idx, ok := cur.Find(grammar.Event{Type: grammar.SE, QName: qn}); ok {
			if err := e.emitEventCode(cur, idx); err != nil {
				return err
			}
			eg := e.Grammars.Builder().ElementGrammarsFor(qn)
			e.pushChild(qn, prefix, cur.Productions[idx].Next, eg.StartTagContent)
			return nil
		}
	}
	if idx, ok := cur.Find(grammar.Event{Type: grammar.SE_GENERIC}); ok {
		if err := e.emitEventCode(cur, idx); err != nil {
			return err
		}
		qn, err := e.Registry.EncodeQNameLiteral(e.Ch, uri, local)
		if err != nil {
			return err
		}
		eg := e.Grammars.Builder().ElementGrammarsFor(qn)
		e.pushChild(qn, prefix, cur.Productions[idx].Next, eg.StartTagContent)
		return nil
	}
	if e.Config.Strict {
		return exierr.Errorf(exierr.UnsupportedOption, "event.StartElement", nil)
	}
	idx, ok := cur.Find(grammar.Event{Type: grammar.SE_GENERIC_UNDECLARED})
	if !ok {
		return exierr.Errorf(exierr.InvariantViolation, "event.StartElement", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	qn, err := e.Registry.EncodeQNameLiteral(e.Ch, uri, local)
	if err != nil {
		return err
	}
	eg := e.Grammars.Builder().ElementGrammarsFor(qn)
	cur.Learn(grammar.Event{Type: grammar.SE, QName: qn}, eg.StartTagContent)
	e.warnf("event.StartElement", "undeclared start element "+qn.String())
	e.pushChild(qn, prefix, cur.Productions[idx].Next, eg.StartTagContent)
	return nil
}

// EndElement emits an EE event and pops the element-context stack, which
// resumes the parent's own grammar pointer (already advanced past this
// element's SE production by StartElement).
func (e *Encoder) EndElement() error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.EE})
	if !ok {
		if e.Config.Strict {
			return exierr.Errorf(exierr.UnsupportedOption, "event.EndElement", nil)
		}
		idx, ok = cur.Find(grammar.Event{Type: grammar.EE_UNDECLARED})
		if !ok {
			return exierr.Errorf(exierr.MalformedBitstream, "event.EndElement", nil)
		}
		if err := e.emitEventCode(cur, idx); err != nil {
			return err
		}
		cur.Learn(grammar.Event{Type: grammar.EE}, cur.Productions[idx].Next)
		e.Stack.Pop()
		return nil
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	e.Stack.Pop()
	return nil
}

// Attribute emits an AT event for (uri, local) = value. Values are
// delivered to the string table for deduplication, exactly as element
// character content is (spec §4.3). If cfg.ValidateAttribute is set and
// rejects value against qn's declared datatype, the attribute is coded via
// AT_INVALID (a specific AT production is declared for this name, but the
// value fails validation) or AT_ANY_INVALID (the name is registry-known but
// no specific production declares it, only the AT_GENERIC fallback)
// instead (SPEC_FULL.md §3). A name never seen before carries no schema
// type to validate against, so it always falls through to the plain
// AT_GENERIC/AT_GENERIC_UNDECLARED coding.
func (e *Encoder) Attribute(uri, local, prefix, value string) error {
	cur := e.currentGrammar()

	if qn, ok := e.Registry.Lookup(uri, local); ok {
		if idx, ok := cur.Find(grammar.Event{Type: grammar.AT, QName: qn}); ok {
			if e.Config.ValidateAttribute != nil && !e.Config.ValidateAttribute(qn, value) {
				if iidx, iok := cur.Find(grammar.Event{Type: grammar.AT_INVALID, QName: qn}); iok {
					if err := e.emitEventCode(cur, iidx); err != nil {
						return err
					}
					e.setCurrentGrammarID(cur.Productions[iidx].Next)
					return e.Ch.WriteStringLiteral(value)
				}
			}
			if err := e.emitEventCode(cur, idx); err != nil {
				return err
			}
			e.setCurrentGrammarID(cur.Productions[idx].Next)
			return e.Values.EncodeValue(e.Ch, qn, value)
		}
	}
	if idx, ok := cur.Find(grammar.Event{Type: grammar.AT_GENERIC}); ok {
		if e.Config.ValidateAttribute != nil {
			if qn, known := e.Registry.Lookup(uri, local); known && !e.Config.ValidateAttribute(qn, value) {
				if iidx, iok := cur.Find(grammar.Event{Type: grammar.AT_ANY_INVALID}); iok {
					if err := e.emitEventCode(cur, iidx); err != nil {
						return err
					}
					if _, err := e.Registry.EncodeQNameLiteral(e.Ch, uri, local); err != nil {
						return err
					}
					e.setCurrentGrammarID(cur.Productions[iidx].Next)
					return e.Ch.WriteStringLiteral(value)
				}
			}
		}
		if err := e.emitEventCode(cur, idx); err != nil {
			return err
		}
		qn, err := e.Registry.EncodeQNameLiteral(e.Ch, uri, local)
		if err != nil {
			return err
		}
		e.setCurrentGrammarID(cur.Productions[idx].Next)
		return e.Values.EncodeValue(e.Ch, qn, value)
	}
	if e.Config.Strict {
		return exierr.Errorf(exierr.UnsupportedOption, "event.Attribute", nil)
	}
	idx, ok := cur.Find(grammar.Event{Type: grammar.AT_GENERIC_UNDECLARED})
	if !ok {
		return exierr.Errorf(exierr.InvariantViolation, "event.Attribute", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	qn, err := e.Registry.EncodeQNameLiteral(e.Ch, uri, local)
	if err != nil {
		return err
	}
	cur.Learn(grammar.Event{Type: grammar.AT, QName: qn}, cur.Productions[idx].Next)
	e.warnf("event.Attribute", "undeclared attribute "+qn.String())
	e.setCurrentGrammarID(cur.Productions[idx].Next)
	return e.Values.EncodeValue(e.Ch, qn, value)
}

// Characters emits a CH event carrying value.
func (e *Encoder) Characters(value string) error {
	cur := e.currentGrammar()
	qn := e.currentQName()

	if idx, ok := cur.Find(grammar.Event{Type: grammar.CH}); ok {
		if err := e.emitEventCode(cur, idx); err != nil {
			return err
		}
		e.setCurrentGrammarID(cur.Productions[idx].Next)
		return e.Values.EncodeValue(e.Ch, qn, value)
	}
	if idx, ok := cur.Find(grammar.Event{Type: grammar.CH_GENERIC}); ok {
		if err := e.emitEventCode(cur, idx); err != nil {
			return err
		}
		e.setCurrentGrammarID(cur.Productions[idx].Next)
		return e.Values.EncodeValue(e.Ch, qn, value)
	}
	if e.Config.Strict {
		return exierr.Errorf(exierr.UnsupportedOption, "event.Characters", nil)
	}
	idx, ok := cur.Find(grammar.Event{Type: grammar.CH_GENERIC_UNDECLARED})
	if !ok {
		return exierr.Errorf(exierr.MalformedBitstream, "event.Characters", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	e.setCurrentGrammarID(cur.Productions[idx].Next)
	return e.Values.EncodeValue(e.Ch, qn, value)
}

// currentQName returns the QNameContext values are keyed to in the string
// table: the enclosing element's name, or nil at document level (character
// content cannot legally occur there for any grammar this package builds).
func (e *Encoder) currentQName() *qname.QNameContext {
	if top := e.Stack.Top(); top != nil {
		return top.QName
	}
	return nil
}

// Comment emits a CM event, present only when comment fidelity is on
// (spec §6.5).
func (e *Encoder) Comment(text string) error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.CM})
	if !ok {
		return exierr.Errorf(exierr.UnsupportedOption, "event.Comment", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	e.setCurrentGrammarID(cur.Productions[idx].Next)
	return e.Ch.WriteStringLiteral(text)
}

// ProcessingInstruction emits a PI event, present only when PI fidelity is
// on (spec §6.5).
func (e *Encoder) ProcessingInstruction(target, data string) error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.PI})
	if !ok {
		return exierr.Errorf(exierr.UnsupportedOption, "event.ProcessingInstruction", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	e.setCurrentGrammarID(cur.Productions[idx].Next)
	if err := e.Ch.WriteStringLiteral(target); err != nil {
		return err
	}
	return e.Ch.WriteStringLiteral(data)
}

// NamespaceDeclaration emits an NS_DECL event, present only when prefix
// fidelity is on (spec §4.6, "Namespace and prefix handling").
func (e *Encoder) NamespaceDeclaration(prefix, uri string, localElementNS bool) error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.NS_DECL})
	if !ok {
		return exierr.Errorf(exierr.UnsupportedOption, "event.NamespaceDeclaration", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	if err := e.Registry.EncodeURI(e.Ch, uri); err != nil {
		return err
	}
	if err := e.Ch.WriteStringLiteral(prefix); err != nil {
		return err
	}
	if err := e.Ch.WriteBoolean(localElementNS); err != nil {
		return err
	}
	if top := e.Stack.Top(); top != nil {
		top.NSDecls = append(top.NSDecls, NSDecl{Prefix: prefix, URI: uri, LocalElement: localElementNS})
	}
	return nil
}

// BeginSelfContained emits an SC event and switches to a fresh string-table
// scope for the fragment that follows (SPEC_FULL.md §3). The fragment's
// content must itself be closed with a full StartDocument/.../EndDocument
// sequence coded against the fragment grammar (e.Grammars.FragmentGrammar())
// by the caller before calling EndSelfContained.
func (e *Encoder) BeginSelfContained() error {
	cur := e.currentGrammar()
	idx, ok := cur.Find(grammar.Event{Type: grammar.SC})
	if !ok {
		return exierr.Errorf(exierr.UnsupportedOption, "event.BeginSelfContained", nil)
	}
	if err := e.emitEventCode(cur, idx); err != nil {
		return err
	}
	if err := e.Ch.Align(); err != nil {
		return err
	}
	e.setCurrentGrammarID(cur.Productions[idx].Next)
	e.beginSelfContained()
	return nil
}

// EndSelfContained restores the outer document's string-table scope.
func (e *Encoder) EndSelfContained() error {
	e.endSelfContained()
	return nil
}
