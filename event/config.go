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
	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/grammar"
	"github.com/kevin-314159/exificient-core/qname"
	"github.com/kevin-314159/exificient-core/strtable"
)

// Config is the running configuration an Encoder or Decoder needs, distilled
// from the header options of spec §6.5 (package header owns the wire format
// and the full Options record; header.Options.EventConfig translates it into
// this narrower shape, which the exi facade package passes on when it
// constructs an Encoder or Decoder, so that event never has to import
// header).
type Config struct {
	Mode channel.Mode

	Strict        bool
	Comments      bool
	PIs           bool
	DTD           bool
	Prefixes      bool
	LexicalValues bool
	SelfContained bool

	LocalValuePartitions   bool
	ValueMaxLength         int // 0 means unbounded
	ValuePartitionCapacity int // strtable.Unbounded, or a non-negative cap

	MaxBuiltInProductions     int // grammar.Unbounded, or a non-negative cap
	MaxBuiltInElementGrammars int

	// ValidateAttribute, if set, is consulted for every attribute value
	// against its declared datatype; returning false routes the attribute
	// through the AT_INVALID/AT_ANY_INVALID productions instead of erroring
	// (spec supplemental feature, SPEC_FULL.md §3). A nil validator means
	// every attribute value is accepted as-is, which is the only sensible
	// default without a wired schema compiler (spec §1 excludes it).
	ValidateAttribute func(qn *qname.QNameContext, value string) bool
}

// Fidelity projects the subset of Config that package grammar's built-in
// grammar builder needs.
func (c Config) Fidelity() grammar.Fidelity {
	return grammar.Fidelity{
		Comments:      c.Comments,
		PIs:           c.PIs,
		DTD:           c.DTD,
		Prefixes:      c.Prefixes,
		SelfContained: c.SelfContained,
	}
}

// Caps projects the subset of Config the grammar arena's learning caps need.
func (c Config) Caps() grammar.Caps {
	return grammar.Caps{
		MaxBuiltInProductions:     c.MaxBuiltInProductions,
		MaxBuiltInElementGrammars: c.MaxBuiltInElementGrammars,
	}
}

// DefaultConfig returns a Config with every fidelity option off and every
// cap unbounded, matching an EXI document whose header carries no options
// (spec §4.7 step 3, "options present" = 0). Local value partitions default
// to on: that is the standard behavior absent a profile element, and it is
// what the string-table bit-exactness examples in spec §8 assume.
func DefaultConfig() Config {
	return Config{
		Mode:                      channel.BitPacked,
		LocalValuePartitions:      true,
		ValuePartitionCapacity:    strtable.Unbounded,
		MaxBuiltInProductions:     grammar.Unbounded,
		MaxBuiltInElementGrammars: grammar.Unbounded,
	}
}
