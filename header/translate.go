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
	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/event"
	"github.com/kevin-314159/exificient-core/strtable"
)

// EventConfig projects o into the narrower Config package event's Encoder
// and Decoder need. This is the only file of package header that imports
// event, so that event itself never needs to know header's wire format (spec §4.7's
// closing note: "populates the running configuration").
func (o Options) EventConfig() event.Config {
	mode := channel.BitPacked
	if o.BytePacked || o.PreCompress || o.Compression {
		mode = channel.BytePacked
	}
	valuePartitionCapacity := strtable.Unbounded
	if o.ValuePartitionCapacitySet {
		valuePartitionCapacity = o.ValuePartitionCapacity
	}
	return event.Config{
		Mode:                      mode,
		Strict:                    o.Strict,
		Comments:                  o.Comments,
		PIs:                       o.PIs,
		DTD:                       o.DTD,
		Prefixes:                  o.Prefixes,
		LexicalValues:             o.LexicalValues,
		SelfContained:             o.SelfContained,
		LocalValuePartitions:      o.LocalValuePartitions,
		ValueMaxLength:            valueMaxLength(o),
		ValuePartitionCapacity:    valuePartitionCapacity,
		MaxBuiltInProductions:     o.MaxBuiltInProductions,
		MaxBuiltInElementGrammars: o.MaxBuiltInElementGrammars,
	}
}

func valueMaxLength(o Options) int {
	if !o.ValueMaxLengthSet {
		return 0
	}
	return o.ValueMaxLength
}
