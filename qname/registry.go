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

// Package qname implements the EXI QName/URI registry (component C4): the
// interned identity of qualified XML names and the per-namespace tables
// that back it. The registry, and the two IDs it hands out, are what the
// grammar and string-table layers use as a QName's identity instead of
// comparing URI/local-name strings.
//
// This is grounded on the same "interned string -> dense integer id" shape
// as ion/symtab.go's Symtab, generalized to two axes (URI, then local name
// within URI) instead of one.
package qname

import (
	"fmt"
)

// well-known URI ids, fixed by the EXI 1.0 specification.
const (
	URIEmpty = 0
	URIXML   = 1
	URIXSI   = 2
)

const (
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

var xmlLocalNames = []string{"base", "id", "lang", "space"}
var xsiLocalNames = []string{"nil", "type"}

// QNameContext is the interned identity of a qualified XML name. Equality
// and hashing are defined purely over (NamespaceURIID, LocalNameID); the
// URI and LocalName strings are cached for printing only.
type QNameContext struct {
	NamespaceURIID int
	LocalNameID    int
	LocalName      string
	NamespaceURI   string

	// GlobalStartElement, GlobalAttribute, and TypeGrammar are opaque
	// back-references to grammar-package state, kept as interface{} here
	// to avoid an import cycle between qname and grammar (grammar imports
	// qname, not the reverse). GlobalStartElement holds a
	// *grammar.ElementGrammars once the grammar builder has cached one.
	GlobalStartElement interface{}
	GlobalAttribute    interface{}
	TypeGrammar        interface{}

	defaultPrefix  string
	defaultPrinted string
}

// DefaultPrefix returns the QName's default prefix: "" for the empty
// namespace, "xml" for uri-id 1, "xsi" for uri-id 2, and "ns<id>" for any
// other namespace.
func (q *QNameContext) DefaultPrefix() string {
	return q.defaultPrefix
}

// String returns a cached printable form ("prefix:local" or "local").
func (q *QNameContext) String() string { return q.defaultPrinted }

func defaultPrefixFor(uriID int) string {
	switch uriID {
	case URIEmpty:
		return ""
	case URIXML:
		return "xml"
	case URIXSI:
		return "xsi"
	default:
		return fmt.Sprintf("ns%d", uriID)
	}
}

// UriContext is a per-namespace container holding the ordered list of
// QNameContexts declared in it, and, when prefix preservation is enabled,
// the list of prefixes ever bound to it.
type UriContext struct {
	ID       int
	URI      string
	Names    []*QNameContext
	Prefixes []string

	nameIndex map[string]int
	// Immutable marks schema-informed entries that must never be mutated
	// at runtime (only entries discovered while decoding/encoding a
	// schema-less or partially schema-informed document may grow).
	Immutable bool

	// InitialNameCount is the number of QNameContexts present in Names
	// immediately after this URI was populated by NewRegistry or
	// AddSchemaURI (e.g. the four standard xml local names). Entries below
	// this count survive Reset; entries at or above it are
	// runtime-discovered and cleared.
	InitialNameCount int
}

func newUriContext(id int, uri string) *UriContext {
	return &UriContext{ID: id, URI: uri, nameIndex: map[string]int{}}
}

func (u *UriContext) addName(local string) *QNameContext {
	if idx, ok := u.nameIndex[local]; ok {
		return u.Names[idx]
	}
	q := &QNameContext{
		NamespaceURIID: u.ID,
		LocalNameID:    len(u.Names),
		LocalName:      local,
		NamespaceURI:   u.URI,
	}
	q.defaultPrefix = defaultPrefixFor(u.ID)
	if q.defaultPrefix == "" {
		q.defaultPrinted = local
	} else {
		q.defaultPrinted = q.defaultPrefix + ":" + local
	}
	u.nameIndex[local] = len(u.Names)
	u.Names = append(u.Names, q)
	return q
}

// LookupName returns the QNameContext for local, if it has been added to
// this UriContext.
func (u *UriContext) LookupName(local string) (*QNameContext, bool) {
	idx, ok := u.nameIndex[local]
	if !ok {
		return nil, false
	}
	return u.Names[idx], true
}

// AddPrefix appends prefix to this URI's prefix partition if not already
// present, and returns its index.
func (u *UriContext) AddPrefix(prefix string) int {
	for i, p := range u.Prefixes {
		if p == prefix {
			return i
		}
	}
	u.Prefixes = append(u.Prefixes, prefix)
	return len(u.Prefixes) - 1
}

// Registry is the instance-scoped QName/URI table (component C4). It is
// prepopulated with the three URIs the EXI 1.0 specification fixes, and
// grows as unknown URIs/local-names are discovered while encoding or
// decoding a document. Runtime-discovered entries (id >= InitialURICount)
// are cleared by Reset; schema-informed entries below that watermark are
// immutable and persist across runs (spec §5, InitForEachRun).
type Registry struct {
	Uris []*UriContext

	// InitialURICount is the number of URIs present immediately after
	// construction (the 3 built-in URIs plus any schema-informed ones
	// added before the first Reset). Runtime discovery starts here.
	InitialURICount int

	uriIndex map[string]int
}

// NewRegistry returns a Registry prepopulated with the three URIs fixed by
// EXI 1.0: the empty URI, the XML namespace, and the XSI namespace, each
// with their standard local names.
func NewRegistry() *Registry {
	r := &Registry{uriIndex: map[string]int{}}
	r.addURI("")
	xml := r.addURI(xmlNamespace)
	for _, ln := range xmlLocalNames {
		xml.addName(ln)
	}
	xml.InitialNameCount = len(xml.Names)
	xsi := r.addURI(xsiNamespace)
	for _, ln := range xsiLocalNames {
		xsi.addName(ln)
	}
	xsi.InitialNameCount = len(xsi.Names)
	r.InitialURICount = len(r.Uris)
	return r
}

func (r *Registry) addURI(uri string) *UriContext {
	id := len(r.Uris)
	u := newUriContext(id, uri)
	r.Uris = append(r.Uris, u)
	r.uriIndex[uri] = id
	return u
}

// AddSchemaURI adds a URI known ahead of time from a schema-informed
// grammar. It must be called before the registry is used to encode or
// decode, so that it becomes part of the immutable prefix protected from
// Reset.
func (r *Registry) AddSchemaURI(uri string) *UriContext {
	if id, ok := r.uriIndex[uri]; ok {
		return r.Uris[id]
	}
	u := r.addURI(uri)
	u.Immutable = true
	r.InitialURICount = len(r.Uris)
	return u
}

// LookupURI returns the UriContext for uri if known.
func (r *Registry) LookupURI(uri string) (*UriContext, bool) {
	id, ok := r.uriIndex[uri]
	if !ok {
		return nil, false
	}
	return r.Uris[id], true
}

// InternURI returns the UriContext for uri, creating a new runtime entry
// (id >= InitialURICount) if it is not already known.
func (r *Registry) InternURI(uri string) *UriContext {
	if u, ok := r.LookupURI(uri); ok {
		return u
	}
	return r.addURI(uri)
}

// Intern returns the QNameContext for (uri, local), creating both the
// UriContext and the QNameContext as needed.
func (r *Registry) Intern(uri, local string) *QNameContext {
	u := r.InternURI(uri)
	return u.addName(local)
}

// Lookup returns the QNameContext for (uri, local), if both are known.
func (r *Registry) Lookup(uri, local string) (*QNameContext, bool) {
	u, ok := r.LookupURI(uri)
	if !ok {
		return nil, false
	}
	return u.LookupName(local)
}

// KnownURICount returns the number of URIs a caller can pick from without
// falling into the "unknown URI" (miss) encoding path (spec §4.4).
func (r *Registry) KnownURICount() int { return len(r.Uris) }

// Reset clears runtime-discovered URIs and QNameContexts (those with id >=
// InitialURICount) while retaining schema-informed entries, matching the
// codec-wide InitForEachRun contract (spec §5).
func (r *Registry) Reset() {
	if len(r.Uris) <= r.InitialURICount {
		for _, u := range r.Uris {
			if !u.Immutable {
				clearRuntimeNames(u)
			}
		}
		return
	}
	r.Uris = r.Uris[:r.InitialURICount]
	for uri, id := range r.uriIndex {
		if id >= r.InitialURICount {
			delete(r.uriIndex, uri)
		}
	}
	for _, u := range r.Uris {
		clearRuntimeNames(u)
	}
}

// clearRuntimeNames drops the runtime-discovered names in u (those at or
// past InitialNameCount), preserving any prepopulated standard or
// schema-informed names below that watermark (spec §4.4, §5).
func clearRuntimeNames(u *UriContext) {
	if u.Immutable {
		return
	}
	if len(u.Names) > u.InitialNameCount {
		for _, q := range u.Names[u.InitialNameCount:] {
			delete(u.nameIndex, q.LocalName)
		}
		u.Names = u.Names[:u.InitialNameCount]
	}
	u.Prefixes = nil
}
