// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bzip2

import "github.com/artifactdec/strmdec/errs"

// inverseBWTAndRLE inverts the Burrows-Wheeler transform over tt (whose
// low 8 bits hold the pre-BWT byte values) starting from origPtr, using
// bzip2's "single array" technique: the upper 24 bits of each tt entry
// are overwritten with the permutation's next-index link so no second
// array is required. The resulting byte sequence is expanded through
// the second-level run-length decoding (four identical bytes followed
// by a count byte of additional repeats) as it is produced, and written
// to out.
func inverseBWTAndRLE(tt []uint32, origPtr uint, out []byte) (int, error) {
	used := len(tt)

	var c [256]uint32
	for i := 0; i < used; i++ {
		c[tt[i]&0xff]++
	}
	var sum uint32
	for i := 0; i < 256; i++ {
		cnt := c[i]
		c[i] = sum
		sum += cnt
	}
	for i := 0; i < used; i++ {
		b := tt[i] & 0xff
		tt[c[b]] |= uint32(i) << 8
		c[b]++
	}

	if used == 0 {
		return 0, nil
	}
	tPos := tt[origPtr] >> 8

	n := 0
	runLen := 0
	haveRun := false
	var runByte byte
	for i := 0; i < used; i++ {
		b := byte(tt[tPos])
		tPos = tt[tPos] >> 8

		if haveRun && runLen == 4 {
			// b is the repeat count, not a literal byte: emit that many
			// additional copies of runByte.
			for j := 0; j < int(b); j++ {
				if n >= len(out) {
					return 0, errs.New(codecName, errs.CapacityExceeded, "output buffer too small")
				}
				out[n] = runByte
				n++
			}
			runLen = 0
			haveRun = false
			continue
		}

		if n >= len(out) {
			return 0, errs.New(codecName, errs.CapacityExceeded, "output buffer too small")
		}
		out[n] = b
		n++

		if haveRun && b == runByte {
			runLen++
		} else {
			runByte = b
			runLen = 1
			haveRun = true
		}
	}
	return n, nil
}
