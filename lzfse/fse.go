// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzfse

import (
	"math/bits"

	"github.com/artifactdec/strmdec/errs"
)

// fseEntry is one decoder-table slot: the number of bits to read and
// the delta added to the read value to produce the next state, plus
// the symbol this slot decodes to. Used directly for the literal
// alphabet, and embedded in fseValueEntry for L/M/D.
type fseEntry struct {
	nbits  uint8
	delta  int32
	symbol uint16
}

// fseValueEntry is an fseEntry augmented with the value-decoder fields
// L, M, and D carry: a number of extra low bits within the same read
// that refine the decoded value, and the base added to them.
type fseValueEntry struct {
	fseEntry
	valueBits uint8
	valueBase uint32
}

// buildFSETable fills table (len(table) == nstates) from freq, per
// symbol s with freq[s] = f > 0: k = clz(nstates) - clz(f) buckets the
// symbol's states into two bit-widths (k and k-1) so the table's
// entries cover exactly nstates slots, filled in symbol order —
// LZFSE's decoder-table construction assigns consecutive state slots
// directly rather than spreading them with a step function.
func buildFSETable(freq []uint16, nstates int) ([]fseEntry, error) {
	table := make([]fseEntry, nstates)
	total := 0
	clzN := bits.LeadingZeros32(uint32(nstates))
	for sym, f32 := range freq {
		f := int(f32)
		if f == 0 {
			continue
		}
		k := clzN - bits.LeadingZeros32(uint32(f))
		baseWeight := (2 * nstates >> uint(k)) - f
		for w := 0; w < f; w++ {
			if total >= nstates {
				return nil, errs.New(codecName, errs.MalformedBlock, "frequency sum exceeds state count")
			}
			var e fseEntry
			e.symbol = uint16(sym)
			if w < baseWeight {
				e.nbits = uint8(k)
				e.delta = int32((f+w)<<uint(k)) - int32(nstates)
			} else {
				e.nbits = uint8(k - 1)
				e.delta = int32(w-baseWeight) << uint(k-1)
			}
			table[total] = e
			total++
		}
	}
	if total != nstates {
		return nil, errs.New(codecName, errs.MalformedBlock, "frequency sum does not equal state count")
	}
	return table, nil
}

// buildFSEValueTable is buildFSETable plus the fixed per-symbol
// value_bits/value_base fields from valueTable, for the L, M, and D
// alphabets. nbits is widened by value_bits so that a single read
// covers both the state bits and the value bits.
func buildFSEValueTable(freq []uint16, nstates int, valueTable []valueEntry) ([]fseValueEntry, error) {
	base, err := buildFSETable(freq, nstates)
	if err != nil {
		return nil, err
	}
	out := make([]fseValueEntry, nstates)
	for i, e := range base {
		ve := valueTable[e.symbol]
		e.nbits += ve.bits
		out[i] = fseValueEntry{fseEntry: e, valueBits: ve.bits, valueBase: ve.base}
	}
	return out, nil
}
