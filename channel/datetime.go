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

package channel

import (
	"math/big"

	"github.com/kevin-314159/exificient-core/exierr"
)

// DateTimeKind selects which of the eight EXI date/time datatypes a
// DateTimeValue represents (spec §4.2).
type DateTimeKind int

const (
	GYear DateTimeKind = iota
	GYearMonth
	Date
	DateTime
	Time
	GMonth
	GMonthDay
	GDay
)

const yearOffset = 2000
const tzOffsetBiasMinutes = -896

// DateTimeValue packs the components of an EXI date/time value. Not every
// field is meaningful for every DateTimeKind: for example GYear only uses
// Year, and Time only uses Hour/Minute/Second (+ optional fraction/tz).
// This mirrors the original implementation's bit-packed component layout
// (month*32+day, hour*4096+minute*64+second), adapted from the same
// technique the teacher's date.Time uses to pack date components into a
// single integer (see DESIGN.md).
type DateTimeValue struct {
	Kind DateTimeKind

	Year  int64 // signed, only meaningful when Kind includes a year
	Month int   // 1..12
	Day   int   // 1..31

	Hour   int // 0..23
	Minute int // 0..59
	Second int // 0..59

	HasFractionalSecond bool
	FractionalSecond    *big.Int // arbitrary-precision fractional seconds numerator

	HasTimezone  bool
	TimezoneMins int // offset from UTC in minutes, -840..840 typical range
}

func hasYear(k DateTimeKind) bool {
	switch k {
	case GYear, GYearMonth, Date, DateTime:
		return true
	}
	return false
}

func hasMonthDay(k DateTimeKind) bool {
	switch k {
	case GYearMonth, Date, DateTime, GMonthDay:
		return true
	}
	return false
}

// monthDayPresent also covers gMonth, which is encoded as a month-day field with an
// implied day, per the original implementation.
func monthDayPresent(k DateTimeKind) bool {
	return hasMonthDay(k) || k == GMonth
}

func hasTime(k DateTimeKind) bool {
	return k == DateTime || k == Time
}

// WriteDateTime writes a DateTimeValue dispatching on its Kind.
func (w *Writer) WriteDateTime(v DateTimeValue) error {
	if hasYear(v.Kind) {
		if err := w.WriteSignedInteger(big.NewInt(v.Year - yearOffset)); err != nil {
			return err
		}
	}
	if monthDayPresent(v.Kind) {
		month := v.Month
		day := v.Day
		if v.Kind == GMonth {
			day = 1
		}
		packed := uint64(month*32 + day)
		if err := w.WriteNBitUint(packed, 9); err != nil {
			return err
		}
	} else if v.Kind == GDay {
		if err := w.WriteNBitUint(uint64(v.Day), 5); err != nil {
			return err
		}
	}
	if hasTime(v.Kind) {
		packed := uint64(v.Hour*4096 + v.Minute*64 + v.Second)
		if err := w.WriteNBitUint(packed, 17); err != nil {
			return err
		}
		if err := w.WriteBoolean(v.HasFractionalSecond); err != nil {
			return err
		}
		if v.HasFractionalSecond {
			frac := v.FractionalSecond
			if frac == nil {
				frac = big.NewInt(0)
			}
			if err := w.WriteUnsignedInteger(frac); err != nil {
				return err
			}
		}
	}
	if err := w.WriteBoolean(v.HasTimezone); err != nil {
		return err
	}
	if v.HasTimezone {
		biased := uint64(v.TimezoneMins - tzOffsetBiasMinutes)
		if err := w.WriteNBitUint(biased, 11); err != nil {
			return err
		}
	}
	return nil
}

// ReadDateTime reads a value written by WriteDateTime for the given Kind.
func (r *Reader) ReadDateTime(kind DateTimeKind) (DateTimeValue, error) {
	v := DateTimeValue{Kind: kind}
	if hasYear(kind) {
		y, err := r.ReadSignedInteger()
		if err != nil {
			return v, err
		}
		if !y.IsInt64() {
			return v, exierr.Errorf(exierr.InvalidValue, "channel.ReadDateTime", nil)
		}
		v.Year = y.Int64() + yearOffset
	}
	if monthDayPresent(kind) {
		packed, err := r.ReadNBitUint(9)
		if err != nil {
			return v, err
		}
		v.Month = int(packed / 32)
		v.Day = int(packed % 32)
	} else if kind == GDay {
		d, err := r.ReadNBitUint(5)
		if err != nil {
			return v, err
		}
		v.Day = int(d)
	}
	if hasTime(kind) {
		packed, err := r.ReadNBitUint(17)
		if err != nil {
			return v, err
		}
		v.Hour = int(packed / 4096)
		rem := packed % 4096
		v.Minute = int(rem / 64)
		v.Second = int(rem % 64)
		hasFrac, err := r.ReadBoolean()
		if err != nil {
			return v, err
		}
		v.HasFractionalSecond = hasFrac
		if hasFrac {
			frac, err := r.ReadUnsignedInteger()
			if err != nil {
				return v, err
			}
			v.FractionalSecond = frac
		}
	}
	hasTZ, err := r.ReadBoolean()
	if err != nil {
		return v, err
	}
	v.HasTimezone = hasTZ
	if hasTZ {
		biased, err := r.ReadNBitUint(11)
		if err != nil {
			return v, err
		}
		v.TimezoneMins = int(biased) + tzOffsetBiasMinutes
	}
	return v, nil
}
