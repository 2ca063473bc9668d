// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package misc

import "github.com/artifactdec/strmdec/errs"

// DecompressADC decodes Apple Data Compression: a control-byte-driven
// LZ77 variant with literal runs (top bit set) and two match forms
// (a short two-byte form and a long three-byte form), both encoding a
// zero-based back-reference distance — the stored value is one less
// than the actual number of bytes to step back, a detail easy to miss
// against a reference that applies the distance field unadjusted.
func DecompressADC(compressed, uncompressed []byte) (int, error) {
	ci := 0
	oi := 0

	readByte := func() (byte, error) {
		if ci >= len(compressed) {
			return 0, errs.New(codecName, errs.Truncated, "control byte stream ended early")
		}
		b := compressed[ci]
		ci++
		return b, nil
	}

	for ci < len(compressed) {
		b, err := readByte()
		if err != nil {
			return oi, err
		}

		if b&0x80 != 0 {
			num := int(b&0x7f) + 1
			if ci+num > len(compressed) {
				return oi, errs.New(codecName, errs.Truncated, "literal run exceeds input")
			}
			if oi+num > len(uncompressed) {
				return oi, errs.New(codecName, errs.CapacityExceeded, "literal run exceeds output capacity")
			}
			copy(uncompressed[oi:oi+num], compressed[ci:ci+num])
			ci += num
			oi += num
			continue
		}

		b1, err := readByte()
		if err != nil {
			return oi, err
		}

		var length, distance int
		if b&0x40 != 0 {
			length = int(b&0x3f) + 4
			b2, err := readByte()
			if err != nil {
				return oi, err
			}
			distance = int(b1)<<8 | int(b2)
		} else {
			length = int(b>>2) + 3
			distance = int(b&3)<<8 | int(b1)
		}
		distance++ // stored distance is one less than the actual back-reference step

		if distance > oi {
			return oi, errs.New(codecName, errs.DistanceOutOfRange, "match distance out of range")
		}
		if oi+length > len(uncompressed) {
			return oi, errs.New(codecName, errs.CapacityExceeded, "match run exceeds output capacity")
		}
		src := oi - distance
		for i := 0; i < length; i++ {
			uncompressed[oi+i] = uncompressed[src+i]
		}
		oi += length
	}
	return oi, nil
}
