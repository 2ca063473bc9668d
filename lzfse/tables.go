// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzfse

// valueEntry carries the extra-bits width and base value a value
// decoder (L, M, or D) adds to the FSE table's transition entry. Built
// once at package init from the geometric base/bits progressions below
// rather than stored as a literal array, matching this module's
// convention of computing fixed alphabets at load time instead of
// lazily (spec's guidance on the source's lazily-initialised tables).
type valueEntry struct {
	bits uint8
	base uint32
}

const (
	literalAlphabetSize = 256
	literalNumStates    = 1024

	lmAlphabetSize = 20
	lmNumStates    = 64

	dAlphabetSize = 64
	dNumStates    = 256
)

var (
	lValueTable [lmAlphabetSize]valueEntry
	mValueTable [lmAlphabetSize]valueEntry
	dValueTable [dAlphabetSize]valueEntry
)

func init() {
	// L and M: symbols 0-15 carry their own value with no extra bits;
	// symbols 16-19 carry increasing bit widths over a geometric base
	// progression (each base is the previous base plus 2^(previous
	// bits)), per the L/M tail widths this format specifies.
	for i := 0; i < 16; i++ {
		lValueTable[i] = valueEntry{bits: 0, base: uint32(i)}
		mValueTable[i] = valueEntry{bits: 0, base: uint32(i)}
	}
	lTailBits := [4]uint8{2, 3, 5, 8}
	mTailBits := [4]uint8{3, 5, 8, 11}
	lBase, mBase := uint32(16), uint32(16)
	for i := 0; i < 4; i++ {
		lValueTable[16+i] = valueEntry{bits: lTailBits[i], base: lBase}
		lBase += 1 << lTailBits[i]
		mValueTable[16+i] = valueEntry{bits: mTailBits[i], base: mBase}
		mBase += 1 << mTailBits[i]
	}

	// D: 64 symbols grouped 4-per-bit-width, bit widths 0..15, each
	// group's base continuing the previous group's geometric step —
	// the same construction rule as L/M's tail, extended across the
	// whole alphabet since distances span a far wider range than
	// lengths.
	base := uint32(0)
	for g := 0; g < 16; g++ {
		for i := 0; i < 4; i++ {
			sym := g*4 + i
			dValueTable[sym] = valueEntry{bits: uint8(g), base: base}
			base += 1 << uint(g)
		}
	}
}
