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

import "github.com/kevin-314159/exificient-core/channel"

// The options document (spec §4.7 step 6) is written as a flat sequence of
// presence bits, one per option named in spec §4.7's field list, each
// immediately followed by that option's value bits when present. This is a
// deliberate simplification of the W3C options schema's nested
// lesscommon/uncommon/alignment element hierarchy: both encode the same
// information, and a hand-rolled second instance of package event's
// grammar-driven event loop just to encode seventeen fixed fields would add a
// layer of indirection this format does not need. package event never
// imports this package, so there is no cycle either way.

// writeOptionsDocument writes the options document body (everything after
// the options-present bit and before any body padding).
func writeOptionsDocument(w *channel.Writer, o Options) error {
	fields := []struct {
		present bool
		write   func() error
	}{
		{o.BytePacked, func() error { return nil }},
		{o.PreCompress, func() error { return nil }},
		{o.Compression, func() error { return nil }},
		{o.Fragment, func() error { return nil }},
		{o.SchemaIDPresent, func() error { return writeSchemaID(w, o) }},
		{o.Strict, func() error { return nil }},
		{o.Comments, func() error { return nil }},
		{o.PIs, func() error { return nil }},
		{o.DTD, func() error { return nil }},
		{o.Prefixes, func() error { return nil }},
		{o.LexicalValues, func() error { return nil }},
		{o.SelfContained, func() error { return nil }},
		{o.BlockSizeSet, func() error { return w.WriteUvarint64(uint64(o.BlockSize)) }},
		{o.ValueMaxLengthSet, func() error { return w.WriteUvarint64(uint64(o.ValueMaxLength)) }},
		{o.ValuePartitionCapacitySet, func() error { return w.WriteUvarint64(uint64(o.ValuePartitionCapacity)) }},
		{len(o.TypeRepresentations) > 0, func() error { return EncodeTypeRepresentations(w, o.TypeRepresentations) }},
		{o.ProfileSet, func() error {
			return EncodeProfile(w, o.LocalValuePartitions, o.MaxBuiltInElementGrammars, o.MaxBuiltInProductions)
		}},
	}
	for _, f := range fields {
		if err := w.WriteBoolean(f.present); err != nil {
			return err
		}
		if f.present {
			if err := f.write(); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSchemaID(w *channel.Writer, o Options) error {
	if err := w.WriteBoolean(o.SchemaLess); err != nil {
		return err
	}
	if o.SchemaLess {
		return nil
	}
	return w.WriteStringLiteral(o.SchemaID)
}

// readOptionsDocument reads an options document body written by
// writeOptionsDocument into a fresh Options (already seeded with
// DefaultOptions()'s caps).
func readOptionsDocument(r *channel.Reader) (Options, error) {
	o := DefaultOptions()
	readers := []struct {
		present *bool
		read    func() error
	}{
		{&o.BytePacked, func() error { return nil }},
		{&o.PreCompress, func() error { return nil }},
		{&o.Compression, func() error { return nil }},
		{&o.Fragment, func() error { return nil }},
		{&o.SchemaIDPresent, func() error { return readSchemaID(r, &o) }},
		{&o.Strict, func() error { return nil }},
		{&o.Comments, func() error { return nil }},
		{&o.PIs, func() error { return nil }},
		{&o.DTD, func() error { return nil }},
		{&o.Prefixes, func() error { return nil }},
		{&o.LexicalValues, func() error { return nil }},
		{&o.SelfContained, func() error { return nil }},
		{&o.BlockSizeSet, func() error {
			v, err := r.ReadUvarint64()
			o.BlockSize = int(v)
			return err
		}},
		{&o.ValueMaxLengthSet, func() error {
			v, err := r.ReadUvarint64()
			o.ValueMaxLength = int(v)
			return err
		}},
		{&o.ValuePartitionCapacitySet, func() error {
			v, err := r.ReadUvarint64()
			o.ValuePartitionCapacity = int(v)
			return err
		}},
		{new(bool), func() error {
			reps, err := DecodeTypeRepresentations(r)
			o.TypeRepresentations = reps
			return err
		}},
		{&o.ProfileSet, func() error {
			local, elems, prods, err := DecodeProfile(r)
			o.LocalValuePartitions = local
			o.MaxBuiltInElementGrammars = elems
			o.MaxBuiltInProductions = prods
			return err
		}},
	}
	for _, f := range readers {
		present, err := r.ReadBoolean()
		if err != nil {
			return Options{}, err
		}
		*f.present = present
		if present {
			if err := f.read(); err != nil {
				return Options{}, err
			}
		}
	}
	return o, nil
}

func readSchemaID(r *channel.Reader, o *Options) error {
	nilFlag, err := r.ReadBoolean()
	if err != nil {
		return err
	}
	o.SchemaLess = nilFlag
	if nilFlag {
		return nil
	}
	id, err := r.ReadStringLiteralPrefixed()
	if err != nil {
		return err
	}
	o.SchemaID = id
	return nil
}
