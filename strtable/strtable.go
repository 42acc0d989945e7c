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

// Package strtable implements the EXI string table / value partition
// engine (component C3): the local (per-QName) and global value
// partitions that deduplicate repeated string content into compact IDs.
//
// This is grounded directly on ion/symtab.go's Symtab: both maintain a
// dense "value -> id" table alongside an ordered "id -> value" slice, and
// both mutate in lockstep between a writer and a reader that never
// exchange state directly (Symtab's Marshal/Unmarshal here becomes the
// three-way hit/hit/miss protocol of spec §4.3).
package strtable

import (
	"math/big"

	"github.com/kevin-314159/exificient-core/channel"
	"github.com/kevin-314159/exificient-core/qname"
	"golang.org/x/exp/slices"
)

// Unbounded marks a Table with no global capacity limit.
const Unbounded = -1

// Table is the string table engine for one codec run. It must be
// Reset between runs, mirroring the codec-wide InitForEachRun contract.
type Table struct {
	localEnabled bool
	capacity     int // Unbounded, or a non-negative cap on the global partition
	maxValueLen  int // 0 means unbounded; values longer than this are never inserted

	global      []string
	globalIndex map[string]int

	local map[*qname.QNameContext][]string
}

// New returns a Table. localEnabled disables the local partition path
// entirely when false (spec §4.3); capacity bounds the global partition
// (Unbounded for no bound); maxValueLen, when > 0, excludes values longer
// than it (in code points) from ever being table-inserted (spec §6.5,
// valueMaxLength).
func New(localEnabled bool, capacity int, maxValueLen int) *Table {
	return &Table{
		localEnabled: localEnabled,
		capacity:     capacity,
		maxValueLen:  maxValueLen,
		globalIndex:  map[string]int{},
		local:        map[*qname.QNameContext][]string{},
	}
}

// Reset clears all partitions, as required at the start of each codec run.
func (t *Table) Reset() {
	t.global = t.global[:0]
	for k := range t.globalIndex {
		delete(t.globalIndex, k)
	}
	for k := range t.local {
		delete(t.local, k)
	}
}

func bitsFor(n int) uint {
	w := uint(0)
	for (1 << w) < n {
		w++
	}
	return w
}

func (t *Table) localIndexOf(qn *qname.QNameContext, v string) (int, bool) {
	part := t.local[qn]
	for i, s := range part {
		if s == v {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) atCapacity() bool {
	return t.capacity != Unbounded && len(t.global) >= t.capacity
}

// insert adds v to the table's partitions on a miss. An empty value is
// never inserted (mirroring the original's addValue-only-when-L>0 rule),
// so a repeated empty value is always a miss too. A value excluded by
// valueMaxLength or valuePartitionCapacity is excluded from both
// partitions together, so it stays a miss in both.
func (t *Table) insert(qn *qname.QNameContext, v string) {
	if len([]rune(v)) == 0 {
		return
	}
	if t.maxValueLen > 0 && len([]rune(v)) > t.maxValueLen {
		return
	}
	if t.atCapacity() {
		return
	}
	if t.localEnabled {
		t.local[qn] = append(t.local[qn], v)
	}
	if _, ok := t.globalIndex[v]; !ok {
		t.globalIndex[v] = len(t.global)
		t.global = append(t.global, v)
	}
}

// EncodeValue writes value to ch under the three-way protocol of spec
// §4.3: a local hit costs uint(0) plus an N-bit local id; a global hit
// costs uint(1) plus an N-bit global id; a miss costs uint(L+2) plus the
// literal code-point sequence, and inserts value into both partitions
// (subject to valueMaxLength and valuePartitionCapacity).
func (t *Table) EncodeValue(ch *channel.Writer, qn *qname.QNameContext, value string) error {
	if t.localEnabled {
		if id, ok := t.localIndexOf(qn, value); ok {
			if err := ch.WriteUvarint64(0); err != nil {
				return err
			}
			width := bitsFor(len(t.local[qn]))
			return ch.WriteNBitUint(uint64(id), width)
		}
	}
	if id, ok := t.globalIndex[value]; ok {
		if err := ch.WriteUvarint64(1); err != nil {
			return err
		}
		width := bitsFor(len(t.global))
		return ch.WriteNBitUint(uint64(id), width)
	}
	l := len([]rune(value))
	if err := ch.WriteUnsignedInteger(big.NewInt(int64(l + 2))); err != nil {
		return err
	}
	if err := ch.WriteCodepoints(value); err != nil {
		return err
	}
	t.insert(qn, value)
	return nil
}

// DecodeValue reads a value written by EncodeValue.
func (t *Table) DecodeValue(ch *channel.Reader, qn *qname.QNameContext) (string, error) {
	tag, err := ch.ReadUnsignedInteger()
	if err != nil {
		return "", err
	}
	switch {
	case tag.Sign() == 0:
		width := bitsFor(len(t.local[qn]))
		id, err := ch.ReadNBitUint(width)
		if err != nil {
			return "", err
		}
		return t.local[qn][id], nil
	case tag.Cmp(big.NewInt(1)) == 0:
		width := bitsFor(len(t.global))
		id, err := ch.ReadNBitUint(width)
		if err != nil {
			return "", err
		}
		return t.global[id], nil
	default:
		l := int(tag.Int64()) - 2
		value, err := ch.ReadStringLiteral(l)
		if err != nil {
			return "", err
		}
		t.insert(qn, value)
		return value, nil
	}
}

// GlobalSize reports the number of distinct values currently in the global
// partition. Exposed for callers that need to reason about capacity.
func (t *Table) GlobalSize() int { return len(t.global) }

// LocalPartition returns a copy of qn's local partition, in insertion
// order. Exposed for diagnostics and tests.
func (t *Table) LocalPartition(qn *qname.QNameContext) []string {
	return slices.Clone(t.local[qn])
}
