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

// EncodeTypeRepresentations writes the datatypeRepresentationMap section:
// a count followed by that many (schemaType, representationType) QName
// pairs, each QName as two length-prefixed string literals.
func EncodeTypeRepresentations(w *channel.Writer, reps []TypeRepresentation) error {
	if err := w.WriteUvarint64(uint64(len(reps))); err != nil {
		return err
	}
	for _, r := range reps {
		if err := writeQName(w, r.SchemaType); err != nil {
			return err
		}
		if err := writeQName(w, r.RepresentationType); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTypeRepresentations reads a section written by
// EncodeTypeRepresentations.
//
// The Siemens original decodes the two name lists (schema types,
// representation types) independently and zips them only after both are
// complete, guarded by a length check that reads
// "dtrMapTypes.size() == dtrMapTypes.size()" -- always true, a typo for
// "dtrMapTypes.size() == dtrMapRepresentations.size()" (spec §9). This
// codec never has the bug to begin with: it reads each pair as a unit, so
// the two lists cannot diverge in length.
func DecodeTypeRepresentations(r *channel.Reader) ([]TypeRepresentation, error) {
	n, err := r.ReadUvarint64()
	if err != nil {
		return nil, err
	}
	reps := make([]TypeRepresentation, 0, n)
	for i := uint64(0); i < n; i++ {
		schemaType, err := readQName(r)
		if err != nil {
			return nil, err
		}
		repType, err := readQName(r)
		if err != nil {
			return nil, err
		}
		reps = append(reps, TypeRepresentation{SchemaType: schemaType, RepresentationType: repType})
	}
	return reps, nil
}

func writeQName(w *channel.Writer, qn QName) error {
	if err := w.WriteStringLiteral(qn.URI); err != nil {
		return err
	}
	return w.WriteStringLiteral(qn.Local)
}

func readQName(r *channel.Reader) (QName, error) {
	uri, err := r.ReadStringLiteralPrefixed()
	if err != nil {
		return QName{}, err
	}
	local, err := r.ReadStringLiteralPrefixed()
	if err != nil {
		return QName{}, err
	}
	return QName{URI: uri, Local: local}, nil
}
