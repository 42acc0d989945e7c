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

// Decoder is the read-side mirror of Encoder: it reads event codes off the
// channel, resolves them against the current grammar, and drives the same
// grammar-pointer transitions the Encoder does (spec §4.6).
type Decoder struct {
	*base
	Ch *channel.Reader
}

// NewDecoder returns a Decoder over r, using g as the grammar boundary and
// cfg as the running configuration.
func NewDecoder(r *bitio.Reader, g grammar.Grammars, cfg Config, warn exierr.WarnHandler) *Decoder {
	d := &Decoder{base: newBase(g, cfg, warn), Ch: channel.NewReader(r, cfg.Mode)}
	d.InitForEachRun()
	return d
}

// readEventCode reads a 1-, 2-, or 3-part event code against cur and
// resolves it to a production index, mirroring Encoder.emitEventCode's wire
// shape exactly (spec §4.5).
func (d *Decoder) readEventCode(cur *grammar.Grammar) (int, error) {
	p1v, err := d.Ch.ReadNBitUint(cur.Part1Width())
	if err != nil {
		return -1, err
	}
	part1 := int(p1v)

	w2, ok2 := cur.Part2Width()
	if !ok2 {
		return cur.DecodeEventCode(part1, nil, nil)
	}
	tier1, _, _ := cur.TierCounts()
	if part1 != tier1 {
		return cur.DecodeEventCode(part1, nil, nil)
	}

	p2v, err := d.Ch.ReadNBitUint(w2)
	if err != nil {
		return -1, err
	}
	part2 := int(p2v)

	w3, ok3 := cur.Part3Width()
	if !ok3 {
		return cur.DecodeEventCode(part1, &part2, nil)
	}
	_, tier2, _ := cur.TierCounts()
	if part2 != tier2 {
		return cur.DecodeEventCode(part1, &part2, nil)
	}

	p3v, err := d.Ch.ReadNBitUint(w3)
	if err != nil {
		return -1, err
	}
	part3 := int(p3v)
	return cur.DecodeEventCode(part1, &part2, &part3)
}

// StartDocument reads the SD event expected at the beginning of every
// document or fragment.
func (d *Decoder) StartDocument() error {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return err
	}
	if cur.Productions[idx].Event.Type != grammar.SD {
		return exierr.Errorf(exierr.MalformedBitstream, "event.StartDocument", nil)
	}
	d.setCurrentGrammarID(cur.Productions[idx].Next)
	return nil
}

// EndDocument reads the closing ED event.
func (d *Decoder) EndDocument() error {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return err
	}
	if cur.Productions[idx].Event.Type != grammar.ED {
		return exierr.Errorf(exierr.MalformedBitstream, "event.EndDocument", nil)
	}
	return nil
}

func (d *Decoder) pushChild(qn *qname.QNameContext, prefix string, afterSE, childStart grammar.GrammarID) {
	d.setCurrentGrammarID(afterSE)
	d.Stack.Push(ElementContext{QName: qn, Grammar: childStart, Prefix: prefix})
}

// StartElement reads the next event, which must be some form of SE, and
// returns the decoded element's uri, local name, and prefix (prefix is ""
// unless prefix fidelity is on and a namespace declaration supplied one).
func (d *Decoder) StartElement() (uri, local, prefix string, err error) {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return "", "", "", err
	}
	ev := cur.Productions[idx].Event

	switch ev.Type {
	case grammar.SE:
		qn := ev.QName
		eg := d.Grammars.Builder().ElementGrammarsFor(qn)
		d.pushChild(qn, "", cur.Productions[idx].Next, eg.StartTagContent)
		return qn.NamespaceURI, qn.LocalName, "", nil
	case grammar.SE_GENERIC, grammar.SE_GENERIC_UNDECLARED:
		qn, derr := d.Registry.DecodeQNameLiteral(d.Ch)
		if derr != nil {
			return "", "", "", derr
		}
		eg := d.Grammars.Builder().ElementGrammarsFor(qn)
		if ev.Type == grammar.SE_GENERIC_UNDECLARED {
			cur.Learn(grammar.Event{Type: grammar.SE, QName: qn}, eg.StartTagContent)
			d.warnf("event.StartElement", "undeclared start element "+qn.String())
		}
		d.pushChild(qn, "", cur.Productions[idx].Next, eg.StartTagContent)
		return qn.NamespaceURI, qn.LocalName, "", nil
	default:
		return "", "", "", exierr.Errorf(exierr.MalformedBitstream, "event.StartElement", nil)
	}
}

// EndElement reads the next event, which must be some form of EE, and pops
// the element-context stack.
func (d *Decoder) EndElement() error {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return err
	}
	ev := cur.Productions[idx].Event
	switch ev.Type {
	case grammar.EE:
		d.Stack.Pop()
		return nil
	case grammar.EE_UNDECLARED:
		cur.Learn(grammar.Event{Type: grammar.EE}, cur.Productions[idx].Next)
		d.Stack.Pop()
		return nil
	default:
		return exierr.Errorf(exierr.MalformedBitstream, "event.EndElement", nil)
	}
}

// Attribute reads the next event, which must be some form of AT, and
// returns the decoded uri, local name, and value.
func (d *Decoder) Attribute() (uri, local, value string, err error) {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return "", "", "", err
	}
	ev := cur.Productions[idx].Event

	switch ev.Type {
	case grammar.AT, grammar.AT_INVALID:
		qn := ev.QName
		if qn == nil {
			qn, err = d.Registry.DecodeQNameLiteral(d.Ch)
			if err != nil {
				return "", "", "", err
			}
		}
		d.setCurrentGrammarID(cur.Productions[idx].Next)
		if ev.Type == grammar.AT_INVALID {
			v, rerr := d.Ch.ReadStringLiteralPrefixed()
			return qn.NamespaceURI, qn.LocalName, v, rerr
		}
		v, rerr := d.Values.DecodeValue(d.Ch, qn)
		return qn.NamespaceURI, qn.LocalName, v, rerr
	case grammar.AT_GENERIC, grammar.AT_GENERIC_UNDECLARED:
		qn, derr := d.Registry.DecodeQNameLiteral(d.Ch)
		if derr != nil {
			return "", "", "", derr
		}
		if ev.Type == grammar.AT_GENERIC_UNDECLARED {
			cur.Learn(grammar.Event{Type: grammar.AT, QName: qn}, cur.Productions[idx].Next)
			d.warnf("event.Attribute", "undeclared attribute "+qn.String())
		}
		d.setCurrentGrammarID(cur.Productions[idx].Next)
		v, rerr := d.Values.DecodeValue(d.Ch, qn)
		return qn.NamespaceURI, qn.LocalName, v, rerr
	case grammar.AT_ANY_INVALID:
		qn, derr := d.Registry.DecodeQNameLiteral(d.Ch)
		if derr != nil {
			return "", "", "", derr
		}
		d.setCurrentGrammarID(cur.Productions[idx].Next)
		v, rerr := d.Ch.ReadStringLiteralPrefixed()
		return qn.NamespaceURI, qn.LocalName, v, rerr
	default:
		return "", "", "", exierr.Errorf(exierr.MalformedBitstream, "event.Attribute", nil)
	}
}

// Characters reads the next event, which must be some form of CH, and
// returns the decoded value.
func (d *Decoder) Characters() (string, error) {
	cur := d.currentGrammar()
	qn := d.currentQName()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return "", err
	}
	switch cur.Productions[idx].Event.Type {
	case grammar.CH, grammar.CH_GENERIC, grammar.CH_GENERIC_UNDECLARED:
		d.setCurrentGrammarID(cur.Productions[idx].Next)
		return d.Values.DecodeValue(d.Ch, qn)
	default:
		return "", exierr.Errorf(exierr.MalformedBitstream, "event.Characters", nil)
	}
}

func (d *Decoder) currentQName() *qname.QNameContext {
	if top := d.Stack.Top(); top != nil {
		return top.QName
	}
	return nil
}

// Comment reads a CM event and returns its text.
func (d *Decoder) Comment() (string, error) {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return "", err
	}
	if cur.Productions[idx].Event.Type != grammar.CM {
		return "", exierr.Errorf(exierr.MalformedBitstream, "event.Comment", nil)
	}
	d.setCurrentGrammarID(cur.Productions[idx].Next)
	return d.Ch.ReadStringLiteralPrefixed()
}

// ProcessingInstruction reads a PI event and returns its target and data.
func (d *Decoder) ProcessingInstruction() (target, data string, err error) {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return "", "", err
	}
	if cur.Productions[idx].Event.Type != grammar.PI {
		return "", "", exierr.Errorf(exierr.MalformedBitstream, "event.ProcessingInstruction", nil)
	}
	d.setCurrentGrammarID(cur.Productions[idx].Next)
	target, err = d.Ch.ReadStringLiteralPrefixed()
	if err != nil {
		return "", "", err
	}
	data, err = d.Ch.ReadStringLiteralPrefixed()
	return target, data, err
}

// NamespaceDeclaration reads an NS_DECL event and returns its prefix, uri,
// and local-element flag.
func (d *Decoder) NamespaceDeclaration() (prefix, uri string, localElementNS bool, err error) {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return "", "", false, err
	}
	if cur.Productions[idx].Event.Type != grammar.NS_DECL {
		return "", "", false, exierr.Errorf(exierr.MalformedBitstream, "event.NamespaceDeclaration", nil)
	}
	u, err := d.Registry.DecodeURI(d.Ch)
	if err != nil {
		return "", "", false, err
	}
	prefix, err = d.Ch.ReadStringLiteralPrefixed()
	if err != nil {
		return "", "", false, err
	}
	localElementNS, err = d.Ch.ReadBoolean()
	if err != nil {
		return "", "", false, err
	}
	if top := d.Stack.Top(); top != nil {
		top.NSDecls = append(top.NSDecls, NSDecl{Prefix: prefix, URI: u.URI, LocalElement: localElementNS})
	}
	return prefix, u.URI, localElementNS, nil
}

// PeekIsSelfContained reports whether the next production the current
// grammar reaches is an SC event, without consuming any bits. Callers use
// this to decide whether to call BeginSelfContained instead of the usual
// content-event readers.
func (d *Decoder) PeekIsSelfContained() bool {
	cur := d.currentGrammar()
	_, ok := cur.Find(grammar.Event{Type: grammar.SC})
	return ok
}

// BeginSelfContained reads an SC event, aligns to a byte boundary, and
// switches to a fresh string-table scope for the fragment that follows
// (SPEC_FULL.md §3). The caller must then decode the fragment with a full
// StartDocument/.../EndDocument sequence against d.Grammars.FragmentGrammar()
// before calling EndSelfContained.
func (d *Decoder) BeginSelfContained() error {
	cur := d.currentGrammar()
	idx, err := d.readEventCode(cur)
	if err != nil {
		return err
	}
	if cur.Productions[idx].Event.Type != grammar.SC {
		return exierr.Errorf(exierr.MalformedBitstream, "event.BeginSelfContained", nil)
	}
	if err := d.Ch.Align(); err != nil {
		return err
	}
	d.setCurrentGrammarID(cur.Productions[idx].Next)
	d.beginSelfContained()
	return nil
}

// EndSelfContained restores the outer document's string-table scope.
func (d *Decoder) EndSelfContained() error {
	d.endSelfContained()
	return nil
}
