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

package header

import (
	"github.com/kevin-314159/exificient-core/bitio"
	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/exierr"
)

const (
	distinguishingBits      = 0x2 // "10"
	distinguishingBitWidth  = 2
	formatVersionFieldWidth = 4
	formatVersionContinue   = 15
)

// EncodeHeader writes the EXI header envelope (spec §4.7): an optional
// cookie, the distinguishing bits, the options-present bit, the
// preview/version fields, and -- if o carries any non-default option -- the
// nested options document. For non-bit-packed coding modes it then pads to
// a byte boundary, so the body starts byte-aligned.
func EncodeHeader(bw *bitio.Writer, o Options) error {
	if o.SchemaIDPresent && !o.SchemaLess && o.SchemaID == "" {
		o.SchemaID = NewSchemaID()
	}
	if o.IncludeCookie {
		if err := bw.WriteBytes([]byte("$EXI")); err != nil {
			return exierr.Errorf(exierr.UnexpectedEndOfStream, "header.EncodeHeader", err)
		}
	}
	if err := bw.WriteBits(distinguishingBits, distinguishingBitWidth); err != nil {
		return exierr.Errorf(exierr.UnexpectedEndOfStream, "header.EncodeHeader", err)
	}
	includeOptions := hasNonDefaultOption(o)
	if err := bw.WriteBit(boolToBit(includeOptions)); err != nil {
		return exierr.Errorf(exierr.UnexpectedEndOfStream, "header.EncodeHeader", err)
	}
	if err := bw.WriteBit(0); err != nil { // preview version: always final
		return exierr.Errorf(exierr.UnexpectedEndOfStream, "header.EncodeHeader", err)
	}
	if err := bw.WriteBits(0, formatVersionFieldWidth); err != nil { // version 1: single 0 field
		return exierr.Errorf(exierr.UnexpectedEndOfStream, "header.EncodeHeader", err)
	}
	if includeOptions {
		cw := channel.NewWriter(bw, channel.BitPacked)
		if err := writeOptionsDocument(cw, o); err != nil {
			return err
		}
	}
	if !nonBitPacked(o) {
		return nil
	}
	return bw.Align()
}

// nonBitPacked reports whether o selects any alignment mode other than
// bit-packed. Byte-packed, pre-compression, and compression modes all
// require the body to start on a byte boundary (spec §6.3): "other than
// bit-packed has padding bits" in the original phrasing.
func nonBitPacked(o Options) bool {
	return o.BytePacked || o.PreCompress || o.Compression
}

// DecodeHeader reads an EXI header envelope written by EncodeHeader. The
// returned Options always has IncludeCookie set to whether a cookie was
// actually present on the wire, regardless of what the encoder was asked
// for.
func DecodeHeader(br *bitio.Reader) (Options, error) {
	sawCookie, err := consumeCookie(br)
	if err != nil {
		return Options{}, err
	}
	bits, err := br.ReadBits(distinguishingBitWidth)
	if err != nil {
		return Options{}, exierr.Errorf(exierr.UnexpectedEndOfStream, "header.DecodeHeader", err)
	}
	if bits != distinguishingBits {
		return Options{}, exierr.Errorf(exierr.MalformedBitstream, "header.DecodeHeader", nil)
	}
	includeOptions, err := br.ReadBit()
	if err != nil {
		return Options{}, exierr.Errorf(exierr.UnexpectedEndOfStream, "header.DecodeHeader", err)
	}
	preview, err := br.ReadBit()
	if err != nil {
		return Options{}, exierr.Errorf(exierr.UnexpectedEndOfStream, "header.DecodeHeader", err)
	}
	if preview != 0 {
		return Options{}, exierr.Errorf(exierr.UnsupportedOption, "header.DecodeHeader", nil)
	}
	version := 0
	for {
		v, err := br.ReadBits(formatVersionFieldWidth)
		if err != nil {
			return Options{}, exierr.Errorf(exierr.UnexpectedEndOfStream, "header.DecodeHeader", err)
		}
		version += int(v)
		if v != formatVersionContinue {
			break
		}
	}
	if version != 0 {
		return Options{}, exierr.Errorf(exierr.UnsupportedOption, "header.DecodeHeader", nil)
	}

	var o Options
	if includeOptions != 0 {
		cr := channel.NewReader(br, channel.BitPacked)
		o, err = readOptionsDocument(cr)
		if err != nil {
			return Options{}, err
		}
	} else {
		o = DefaultOptions()
	}
	o.IncludeCookie = sawCookie

	if nonBitPacked(o) {
		if err := br.Align(); err != nil {
			return Options{}, err
		}
	}
	return o, nil
}

func consumeCookie(br *bitio.Reader) (bool, error) {
	b, err := br.PeekByte()
	if err != nil {
		return false, exierr.Errorf(exierr.UnexpectedEndOfStream, "header.DecodeHeader", err)
	}
	if b != '$' {
		return false, nil
	}
	got, err := br.ReadBytes(4)
	if err != nil {
		return false, exierr.Errorf(exierr.UnexpectedEndOfStream, "header.DecodeHeader", err)
	}
	if string(got) != "$EXI" {
		return false, exierr.Errorf(exierr.MalformedBitstream, "header.DecodeHeader", nil)
	}
	return true, nil
}

// hasNonDefaultOption reports whether o differs from DefaultOptions() in any
// way an options document would need to carry. IncludeCookie is excluded:
// it governs the envelope, not the options document.
func hasNonDefaultOption(o Options) bool {
	d := DefaultOptions()
	switch {
	case o.BytePacked, o.PreCompress, o.Compression, o.Fragment:
		return true
	case o.SchemaIDPresent:
		return true
	case o.Strict, o.Comments, o.PIs, o.DTD, o.Prefixes, o.LexicalValues, o.SelfContained:
		return true
	case o.BlockSizeSet, o.ValueMaxLengthSet, o.ValuePartitionCapacitySet:
		return true
	case len(o.TypeRepresentations) > 0:
		return true
	case o.ProfileSet:
		return true
	case o.MaxBuiltInElementGrammars != d.MaxBuiltInElementGrammars:
		return true
	case o.MaxBuiltInProductions != d.MaxBuiltInProductions:
		return true
	}
	return false
}

func boolToBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
