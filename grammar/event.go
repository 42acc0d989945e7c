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

// Package grammar implements the EXI grammar state machine (component C5):
// productions, event codes, and built-in-grammar learning subject to caps.
package grammar

import "github.com/kevin-314159/exificient-core/qname"

// EventType is the closed tagged union of grammar events (spec §9,
// "Sum over event kinds").
type EventType int

const (
	SD EventType = iota
	ED
	SE
	SE_NS
	SE_GENERIC
	SE_GENERIC_UNDECLARED
	EE
	EE_UNDECLARED
	AT
	AT_XSI_TYPE
	AT_XSI_NIL
	AT_NS
	AT_GENERIC
	AT_GENERIC_UNDECLARED
	AT_INVALID
	AT_ANY_INVALID
	CH
	CH_GENERIC
	CH_GENERIC_UNDECLARED
	NS_DECL
	CM
	PI
	DT
	ER
	SC
)

func (e EventType) String() string {
	switch e {
	case SD:
		return "SD"
	case ED:
		return "ED"
	case SE:
		return "SE"
	case SE_NS:
		return "SE_NS"
	case SE_GENERIC:
		return "SE_GENERIC"
	case SE_GENERIC_UNDECLARED:
		return "SE_GENERIC_UNDECLARED"
	case EE:
		return "EE"
	case EE_UNDECLARED:
		return "EE_UNDECLARED"
	case AT:
		return "AT"
	case AT_XSI_TYPE:
		return "AT_XSI_TYPE"
	case AT_XSI_NIL:
		return "AT_XSI_NIL"
	case AT_NS:
		return "AT_NS"
	case AT_GENERIC:
		return "AT_GENERIC"
	case AT_GENERIC_UNDECLARED:
		return "AT_GENERIC_UNDECLARED"
	case AT_INVALID:
		return "AT_INVALID"
	case AT_ANY_INVALID:
		return "AT_ANY_INVALID"
	case CH:
		return "CH"
	case CH_GENERIC:
		return "CH_GENERIC"
	case CH_GENERIC_UNDECLARED:
		return "CH_GENERIC_UNDECLARED"
	case NS_DECL:
		return "NS_DECL"
	case CM:
		return "CM"
	case PI:
		return "PI"
	case DT:
		return "DT"
	case ER:
		return "ER"
	case SC:
		return "SC"
	default:
		return "UNKNOWN"
	}
}

// tier buckets an EventType into the event-code part it belongs to (spec
// §4.5: "one, two, or three-part code; ... widths are always
// ceil(log2(k))"). Tier 1 holds events a grammar declares outright; tier 2
// holds generic-but-declared productions (a wildcard the grammar already
// permits); tier 3 holds the fully generic, learning-triggering events.
func (e EventType) tier() int {
	switch e {
	case SE_GENERIC_UNDECLARED, AT_GENERIC_UNDECLARED, CH_GENERIC_UNDECLARED, EE_UNDECLARED:
		return 3
	case SE_GENERIC, AT_GENERIC, CH_GENERIC, AT_INVALID, AT_ANY_INVALID:
		return 2
	default:
		return 1
	}
}

// Event is a single (type, qname) pair bound by a Production. QName is nil
// for events that carry no name (EE, CH, CM, PI, DT, ER, SC, the generic and
// undeclared variants).
type Event struct {
	Type  EventType
	QName *qname.QNameContext
}

// Equal reports whether e and other bind the same event.
func (e Event) Equal(other Event) bool {
	return e.Type == other.Type && e.QName == other.QName
}
