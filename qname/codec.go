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

package qname

import (
	"github.com/kevin-314159/exificient-core/channel"
)

func bitsFor(n int) uint {
	w := uint(0)
	for (1 << w) < n {
		w++
	}
	return w
}

// EncodeURI writes uri to ch, using the registry to decide between the
// "known URI" (uint(id+1) in a ceil(log2(nKnown+1))-bit field) and "unknown
// URI" (uint(0), then the literal string) encodings, per spec §4.4.
// On a miss, uri is interned into the registry so later references hit.
func (r *Registry) EncodeURI(ch *channel.Writer, uri string) error {
	nKnown := r.KnownURICount()
	width := bitsFor(nKnown + 1)
	if u, ok := r.LookupURI(uri); ok {
		if err := ch.WriteNBitUint(uint64(u.ID+1), width); err != nil {
			return err
		}
		return nil
	}
	if err := ch.WriteNBitUint(0, width); err != nil {
		return err
	}
	if err := ch.WriteStringLiteral(uri); err != nil {
		return err
	}
	r.InternURI(uri)
	return nil
}

// DecodeURI reads a value written by EncodeURI.
func (r *Registry) DecodeURI(ch *channel.Reader) (*UriContext, error) {
	nKnown := r.KnownURICount()
	width := bitsFor(nKnown + 1)
	v, err := ch.ReadNBitUint(width)
	if err != nil {
		return nil, err
	}
	if v != 0 {
		return r.Uris[v-1], nil
	}
	uri, err := readLiteralString(ch)
	if err != nil {
		return nil, err
	}
	return r.InternURI(uri), nil
}

// EncodeLocalName writes local within u to ch, following the same
// known/unknown pattern as EncodeURI but scoped to u's local-name
// partition.
func (u *UriContext) EncodeLocalName(ch *channel.Writer, local string) error {
	n := len(u.Names)
	width := bitsFor(n + 1)
	if q, ok := u.LookupName(local); ok {
		return ch.WriteNBitUint(uint64(q.LocalNameID+1), width)
	}
	if err := ch.WriteNBitUint(0, width); err != nil {
		return err
	}
	if err := ch.WriteStringLiteral(local); err != nil {
		return err
	}
	u.addName(local)
	return nil
}

// DecodeLocalName reads a value written by EncodeLocalName.
func (u *UriContext) DecodeLocalName(ch *channel.Reader) (*QNameContext, error) {
	n := len(u.Names)
	width := bitsFor(n + 1)
	v, err := ch.ReadNBitUint(width)
	if err != nil {
		return nil, err
	}
	if v != 0 {
		return u.Names[v-1], nil
	}
	local, err := readLiteralString(ch)
	if err != nil {
		return nil, err
	}
	return u.addName(local), nil
}

// EncodeQNameLiteral writes the full (uri, local) pair to ch via EncodeURI
// followed by EncodeLocalName, and returns the resulting interned
// QNameContext. Callers that already hold a QNameContext from a prior
// Lookup should prefer writing through that URI's UriContext directly (no
// wire bits are needed at all when a grammar production already names the
// QName outright); this helper is for the "grammar only knows *some* name
// is legal here" paths (SE_GENERIC, AT_GENERIC, the undeclared variants),
// where the identity itself must travel on the wire.
func (r *Registry) EncodeQNameLiteral(ch *channel.Writer, uri, local string) (*QNameContext, error) {
	if err := r.EncodeURI(ch, uri); err != nil {
		return nil, err
	}
	u, _ := r.LookupURI(uri)
	if err := u.EncodeLocalName(ch, local); err != nil {
		return nil, err
	}
	qn, _ := u.LookupName(local)
	return qn, nil
}

// DecodeQNameLiteral reads a value written by EncodeQNameLiteral.
func (r *Registry) DecodeQNameLiteral(ch *channel.Reader) (*QNameContext, error) {
	u, err := r.DecodeURI(ch)
	if err != nil {
		return nil, err
	}
	return u.DecodeLocalName(ch)
}

func readLiteralString(ch *channel.Reader) (string, error) {
	nBig, err := ch.ReadUnsignedInteger()
	if err != nil {
		return "", err
	}
	n := int(nBig.Int64())
	return ch.ReadStringLiteral(n)
}
