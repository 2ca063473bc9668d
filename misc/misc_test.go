// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package misc

import (
	"errors"
	"testing"

	"github.com/artifactdec/strmdec/errs"
)

func TestDecompressADCRoundTrip(t *testing.T) {
	// spec §8: 83 FE ED FA CE 00 00 40 00 06 -> FE ED FA CE CE CE CE FE ED FA CE.
	compressed := []byte{0x83, 0xFE, 0xED, 0xFA, 0xCE, 0x00, 0x00, 0x40, 0x00, 0x06}
	out := make([]byte, 16)
	n, err := DecompressADC(compressed, out)
	if err != nil {
		t.Fatalf("DecompressADC: %v", err)
	}
	want := []byte{0xFE, 0xED, 0xFA, 0xCE, 0xCE, 0xCE, 0xCE, 0xFE, 0xED, 0xFA, 0xCE}
	if n != len(want) {
		t.Fatalf("got %d bytes, want %d", n, len(want))
	}
	for i, b := range want {
		if out[i] != b {
			t.Fatalf("byte %d: got %#02x, want %#02x", i, out[i], b)
		}
	}
}

func TestDecompressADCDistanceOutOfRange(t *testing.T) {
	// A match opcode with no preceding literal to reference.
	compressed := []byte{0x00, 0x00}
	out := make([]byte, 16)
	_, err := DecompressADC(compressed, out)
	var se *errs.Error
	if !errors.As(err, &se) || se.Kind != errs.DistanceOutOfRange {
		t.Fatalf("expected DistanceOutOfRange, got %v", err)
	}
}

func TestDecompressASCII7(t *testing.T) {
	// First byte verbatim (0x41 'A'). The remaining bytes 0xFF, 0x01 form
	// a continuous LSB-first bit stream 1111111 1000000 0...; the first
	// 7-bit group is bits 0-6 of 0xFF (0x7F), the second is the leftover
	// bit 7 of 0xFF (1) followed by bits 0-5 of 0x01 (100000 reversed to
	// LSB-first, i.e. bit0=1,bits1-5=0), giving value 0b0000011 = 3.
	compressed := []byte{0x41, 0xFF, 0x01}
	out := make([]byte, 3)
	n, err := DecompressASCII7(compressed, out)
	if err != nil {
		t.Fatalf("DecompressASCII7: %v", err)
	}
	if n != 3 {
		t.Fatalf("got %d bytes, want 3", n)
	}
	if out[0] != 'A' {
		t.Fatalf("out[0] = %#02x, want 'A'", out[0])
	}
	if out[1] != 0x7F {
		t.Fatalf("out[1] = %#02x, want 0x7F", out[1])
	}
	if out[2] != 0x03 {
		t.Fatalf("out[2] = %#02x, want 0x03", out[2])
	}
}

func TestStubsReportNotImplemented(t *testing.T) {
	for _, f := range []func([]byte, []byte) (int, error){
		DecompressLZXPRESS, DecompressLZNT1, DecompressLZX,
	} {
		_, err := f(nil, nil)
		var se *errs.Error
		if !errors.As(err, &se) || se.Kind != errs.NotImplemented {
			t.Fatalf("expected NotImplemented, got %v", err)
		}
	}
}
