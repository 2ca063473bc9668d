// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzvn

import (
	"errors"
	"testing"

	"github.com/artifactdec/strmdec/errs"
)

func TestDecompressLiteralAndEOS(t *testing.T) {
	compressed := []byte{
		0xE0, 0x03, 0x4D, 0x79, 0x20, 0x63, 0x6F, 0x6D, 0x70, 0x72,
		0x65, 0x73, 0x73, 0x65, 0x64, 0x20, 0x66, 0x69, 0x6C, 0x65,
		0x0A, 0x06, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	out := make([]byte, 32)
	n, err := Decompress(compressed, out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got, want := string(out[:n]), "My compressed file\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestDecompressSmallDistanceMatch decodes a literal run "ab" followed
// by a small-distance opcode selecting distance 1 and match length 3,
// exercising the overlapping-copy semantics (M can exceed D).
func TestDecompressSmallDistanceMatch(t *testing.T) {
	compressed := []byte{
		0xE2, 'a', 'b', // literal small, L=2
		0x00, 0x01, // distance small: L=0, Mraw=0 (M=3), D_hi=0, n1=1 -> D=1
		0x06, // end of stream
	}
	out := make([]byte, 16)
	n, err := Decompress(compressed, out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got, want := string(out[:n]), "abbbb"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecompressInvalidOpcode(t *testing.T) {
	compressed := []byte{0xD0}
	out := make([]byte, 4)
	_, err := Decompress(compressed, out)
	var se *errs.Error
	if !errors.As(err, &se) || se.Kind != errs.MalformedBlock {
		t.Fatalf("expected MalformedBlock, got %v", err)
	}
}
