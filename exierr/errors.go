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

// Package exierr defines the error kinds shared by every layer of the codec
// core (bit I/O up through the event coder and header codec), so that a
// caller can type-switch on a single error type regardless of which layer
// raised it.
package exierr

import "fmt"

// Kind classifies a CodecError. See spec §7.
type Kind int

const (
	// UnexpectedEndOfStream means the underlying byte source was exhausted
	// mid-quantity.
	UnexpectedEndOfStream Kind = iota
	// MalformedBitstream means distinguishing bits, a cookie, or an event
	// code did not match what the grammar or header format expects.
	MalformedBitstream
	// UnsupportedOption means the header requested a feature this
	// implementation does not provide.
	UnsupportedOption
	// SchemaMismatch means a schemaId was given but could not be resolved
	// to a Grammars instance.
	SchemaMismatch
	// InvalidValue means a datatype-specific value was out of range or
	// malformed (negative length, bad surrogate pair, wrong-width decimal).
	InvalidValue
	// InvariantViolation means the grammar state was inconsistent with the
	// event being encoded or decoded; this indicates a bug in the caller
	// or the core itself, never a malformed stream.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case UnexpectedEndOfStream:
		return "unexpected end of stream"
	case MalformedBitstream:
		return "malformed bitstream"
	case UnsupportedOption:
		return "unsupported option"
	case SchemaMismatch:
		return "schema mismatch"
	case InvalidValue:
		return "invalid value"
	case InvariantViolation:
		return "invariant violation"
	default:
		return "unknown codec error"
	}
}

// CodecError is the single error type raised by the codec core. All errors
// are fatal to the current stream; the codec instance must be reset with
// InitForEachRun before reuse.
type CodecError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exi: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("exi: %s: %s", e.Op, e.Kind)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Errorf builds a CodecError of the given kind, wrapping err (if non-nil).
func Errorf(kind Kind, op string, err error) *CodecError {
	return &CodecError{Kind: kind, Op: op, Err: err}
}

// WarnHandler receives non-fatal warnings, such as a deviation event
// (undeclared name, generic production) being taken in non-strict mode.
// A nil handler discards warnings.
type WarnHandler func(op string, msg string)
