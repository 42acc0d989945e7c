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

// Package exi is the public facade tying the header (C7), event (C6), and
// grammar (C5) layers together into a single encode/decode entry point
// (spec §6.4, "boundary with schema compiler").
package exi

import (
	"io"

	"github.com/kevin-314159/exificient-core/bitio"
	"github.com/kevin-314159/exificient-core/compression"
	"github.com/kevin-314159/exificient-core/event"
	"github.com/kevin-314159/exificient-core/exierr"
	"github.com/kevin-314159/exificient-core/grammar"
	"github.com/kevin-314159/exificient-core/header"
)

// SchemaResolver resolves a header schemaId (spec §6.5) to the Grammars
// instance describing that schema. Package exi has no schema compiler of
// its own (spec §1 non-goal); a caller wanting schema-informed decoding of
// documents carrying a schemaId must supply one.
type SchemaResolver func(schemaID string) (grammar.Grammars, bool)

// defaultCompressionAlgorithm is used when header options request
// compression or pre-compression without further qualification.
const defaultCompressionAlgorithm = "zstd"

// Encoder writes one EXI stream: a header followed by a body coded against
// a single Grammars instance.
type Encoder struct {
	ev   *event.Encoder
	flat io.Writer // the BlockWriter, if compression wraps the body; nil otherwise
}

// NewEncoder starts a new EXI stream on w: it writes opts as the header,
// then constructs an event.Encoder over g using the Config opts implies.
// If opts requests compression or pre-compression, the body is wrapped in a
// compression.BlockWriter using alg (or defaultCompressionAlgorithm if alg
// is empty) before any body bits are written.
func NewEncoder(w io.Writer, opts header.Options, g grammar.Grammars, alg string) (*Encoder, error) {
	bw := bitio.NewWriter(w)
	if err := header.EncodeHeader(bw, opts); err != nil {
		return nil, err
	}
	bodyWriter := w
	var flat io.Writer
	if opts.Compression || opts.PreCompress {
		c := compression.ByName(alg)
		if c == nil {
			c = compression.ByName(defaultCompressionAlgorithm)
		}
		blockSize := compression.DefaultBlockSize
		if opts.BlockSizeSet {
			blockSize = opts.BlockSize
		}
		block := compression.NewBlockWriter(bodyWriter, c, blockSize)
		bodyWriter = block
		flat = block
	}
	bodyBW := bw
	if flat != nil {
		bodyBW = bitio.NewWriter(bodyWriter)
	}
	ev := event.NewEncoder(bodyBW, g, opts.EventConfig(), nil)
	return &Encoder{ev: ev, flat: flat}, nil
}

// StartDocument, EndDocument, StartElement, EndElement, Attribute,
// Characters, Comment, ProcessingInstruction, NamespaceDeclaration,
// BeginSelfContained, and EndSelfContained delegate directly to the
// underlying event.Encoder (spec §4.6).
func (e *Encoder) StartDocument() error { return e.ev.StartDocument() }
func (e *Encoder) EndDocument() error {
	if err := e.ev.EndDocument(); err != nil {
		return err
	}
	if bw, ok := e.flat.(interface{ Flush() error }); ok {
		return bw.Flush()
	}
	return nil
}
func (e *Encoder) StartElement(uri, local, prefix string) error {
	return e.ev.StartElement(uri, local, prefix)
}
func (e *Encoder) EndElement() error { return e.ev.EndElement() }
func (e *Encoder) Attribute(uri, local, prefix, value string) error {
	return e.ev.Attribute(uri, local, prefix, value)
}
func (e *Encoder) Characters(value string) error { return e.ev.Characters(value) }
func (e *Encoder) Comment(text string) error     { return e.ev.Comment(text) }
func (e *Encoder) ProcessingInstruction(target, data string) error {
	return e.ev.ProcessingInstruction(target, data)
}
func (e *Encoder) NamespaceDeclaration(prefix, uri string, localElementNS bool) error {
	return e.ev.NamespaceDeclaration(prefix, uri, localElementNS)
}
func (e *Encoder) BeginSelfContained() error { return e.ev.BeginSelfContained() }
func (e *Encoder) EndSelfContained() error   { return e.ev.EndSelfContained() }

// Decoder reads one EXI stream written by an Encoder.
type Decoder struct {
	ev *event.Decoder
}

// NewDecoder reads the header from r, resolves the Grammars to decode the
// body against, and returns a ready Decoder plus the header.Options that
// were negotiated (a caller inspecting, say, opts.SelfContained or
// opts.LexicalValues after the fact needs this).
//
// defaultGrammars is used when the header carries no schemaId, or carries
// one with the xsi:nil schema-less marker. When the header carries a
// concrete schemaId, resolve is consulted; a nil resolve, or one that
// returns ok == false, is a SchemaMismatch (spec §7).
func NewDecoder(r io.Reader, defaultGrammars grammar.Grammars, resolve SchemaResolver, warn exierr.WarnHandler) (*Decoder, header.Options, error) {
	br := bitio.NewReader(r)
	opts, err := header.DecodeHeader(br)
	if err != nil {
		return nil, header.Options{}, err
	}

	g := defaultGrammars
	if opts.SchemaIDPresent && !opts.SchemaLess {
		if resolve == nil {
			return nil, opts, exierr.Errorf(exierr.SchemaMismatch, "exi.NewDecoder", nil)
		}
		resolved, ok := resolve(opts.SchemaID)
		if !ok {
			return nil, opts, exierr.Errorf(exierr.SchemaMismatch, "exi.NewDecoder", nil)
		}
		g = resolved
	}
	if g == nil {
		return nil, opts, exierr.Errorf(exierr.SchemaMismatch, "exi.NewDecoder", nil)
	}

	bodyReader := r
	if opts.Compression || opts.PreCompress {
		alg := defaultCompressionAlgorithm
		d := compression.DecompressorByName(alg)
		bodyReader = compression.NewBlockReader(bodyReader, d)
	}
	bodyBR := br
	if bodyReader != r {
		bodyBR = bitio.NewReader(bodyReader)
	}

	dec := event.NewDecoder(bodyBR, g, opts.EventConfig(), warn)
	return &Decoder{ev: dec}, opts, nil
}

func (d *Decoder) StartDocument() error { return d.ev.StartDocument() }
func (d *Decoder) EndDocument() error   { return d.ev.EndDocument() }
func (d *Decoder) StartElement() (uri, local, prefix string, err error) {
	return d.ev.StartElement()
}
func (d *Decoder) EndElement() error { return d.ev.EndElement() }
func (d *Decoder) Attribute() (uri, local, value string, err error) {
	return d.ev.Attribute()
}
func (d *Decoder) Characters() (string, error) { return d.ev.Characters() }
func (d *Decoder) Comment() (string, error)    { return d.ev.Comment() }
func (d *Decoder) ProcessingInstruction() (target, data string, err error) {
	return d.ev.ProcessingInstruction()
}
func (d *Decoder) NamespaceDeclaration() (prefix, uri string, localElementNS bool, err error) {
	return d.ev.NamespaceDeclaration()
}
func (d *Decoder) PeekIsSelfContained() bool { return d.ev.PeekIsSelfContained() }
func (d *Decoder) BeginSelfContained() error { return d.ev.BeginSelfContained() }
func (d *Decoder) EndSelfContained() error   { return d.ev.EndSelfContained() }
