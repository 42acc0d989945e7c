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
	"math/big"

	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/grammar"
)

// EncodeProfile packs the three profile parameters (spec §6.5, "profile")
// into a single DecimalValue: sign carries localValuePartitions, the
// integral part carries the element-grammar cap plus one, and the
// reverse-fractional part carries the production cap plus one. Wire value 0
// in either the integral or reverse-fractional slot means "unbounded",
// which normalizes to grammar.Unbounded on decode.
func EncodeProfile(w *channel.Writer, localValuePartitions bool, maxElementGrammars, maxProductions int) error {
	return w.WriteDecimal(channel.DecimalValue{
		Negative:    localValuePartitions,
		Integral:    profileSlot(maxElementGrammars),
		ReverseFrac: profileSlot(maxProductions),
	})
}

// profileSlot returns n+1 as a wire value, or 0 for grammar.Unbounded.
func profileSlot(n int) *big.Int {
	if n == grammar.Unbounded {
		return big.NewInt(0)
	}
	return big.NewInt(int64(n) + 1)
}

// DecodeProfile reads a DecimalValue written by EncodeProfile and returns
// its three parameters, normalizing wire value 0 to grammar.Unbounded.
func DecodeProfile(r *channel.Reader) (localValuePartitions bool, maxElementGrammars, maxProductions int, err error) {
	d, err := r.ReadDecimal()
	if err != nil {
		return false, 0, 0, err
	}
	return d.Negative, unslotProfile(d.Integral), unslotProfile(d.ReverseFrac), nil
}

func unslotProfile(v *big.Int) int {
	if v == nil || v.Sign() == 0 {
		return grammar.Unbounded
	}
	n := new(big.Int).Sub(v, big.NewInt(1))
	return int(n.Int64())
}
