// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package misc implements the smaller byte-oriented codecs: the
// ASCII-7 bit-packing expander, Apple's ADC (Apple Data Compression)
// LZ77 variant, and NotImplemented stubs for the Windows compression
// families (LZXPRESS, LZNT1, LZX) this module's retrieval pack only
// carries partial references for.
package misc

import "github.com/artifactdec/strmdec/errs"

const codecName = "misc"

// DecompressASCII7 expands a 7-bit-packed ASCII stream: the first
// output byte is copied verbatim, and every subsequent output byte is
// the next 7-bit value pulled LSB-first from the remaining input bytes
// treated as a continuous bit stream.
func DecompressASCII7(compressed, uncompressed []byte) (int, error) {
	if len(compressed) == 0 {
		return 0, errs.New(codecName, errs.InvalidArgument, "empty input")
	}
	if len(uncompressed) == 0 {
		return 0, errs.New(codecName, errs.CapacityExceeded, "output buffer too small")
	}
	uncompressed[0] = compressed[0]
	n := 1

	var acc uint32
	var bits uint
	bi := 1
	for n < len(uncompressed) {
		for bits < 7 {
			if bi >= len(compressed) {
				return n, nil
			}
			acc |= uint32(compressed[bi]) << bits
			bits += 8
			bi++
		}
		uncompressed[n] = byte(acc & 0x7f)
		acc >>= 7
		bits -= 7
		n++
	}
	return n, nil
}
