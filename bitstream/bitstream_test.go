// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

import (
	"errors"
	"testing"

	"github.com/artifactdec/strmdec/errs"
)

func TestReaderByteFrontToBack(t *testing.T) {
	// 0xB5 = 1011 0101; read the top 4 bits then the bottom 4.
	r := New([]byte{0xB5}, ByteFrontToBack)
	v, err := r.ReadBits(4)
	if err != nil || v != 0xB {
		t.Fatalf("got %#x, %v; want 0xb, nil", v, err)
	}
	v, err = r.ReadBits(4)
	if err != nil || v != 0x5 {
		t.Fatalf("got %#x, %v; want 0x5, nil", v, err)
	}
}

func TestReaderByteBackToFront(t *testing.T) {
	// 0xB5 = 1011 0101; LSB-first reads the bottom 4 bits then the top 4.
	r := New([]byte{0xB5}, ByteBackToFront)
	v, err := r.ReadBits(4)
	if err != nil || v != 0x5 {
		t.Fatalf("got %#x, %v; want 0x5, nil", v, err)
	}
	v, err = r.ReadBits(4)
	if err != nil || v != 0xB {
		t.Fatalf("got %#x, %v; want 0xb, nil", v, err)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := New([]byte{0xFF}, ByteFrontToBack)
	if _, err := r.ReadBits(16); err == nil {
		t.Fatalf("expected an error reading past the end of the buffer")
	}
}

func TestReaderPosAfterAlign(t *testing.T) {
	r := New([]byte{0xFF, 0xFF, 0xFF}, ByteFrontToBack)
	if _, err := r.ReadBits(4); err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	r.AlignToByte()
	if got, want := r.Pos(), 1; got != want {
		t.Fatalf("Pos() = %d, want %d", got, want)
	}
}

// TestReverseReaderOrder exercises plain (unprimed) reads, confirming the
// cursor walks the buffer from its high end downward and each byte is
// packed MSB-first into the accumulator as it is read.
func TestReverseReaderOrder(t *testing.T) {
	// buf[1] = 0xCD = 1100 1101, buf[0] = 0xAB = 1010 1011; reading
	// backwards the first byte encountered is buf[1].
	r := NewReverse([]byte{0xAB, 0xCD})
	v, err := r.ReadBits(4)
	if err != nil || v != 0xC {
		t.Fatalf("got %#x, %v; want 0xc, nil", v, err)
	}
	v, err = r.ReadBits(4)
	if err != nil || v != 0xD {
		t.Fatalf("got %#x, %v; want 0xd, nil", v, err)
	}
	v, err = r.ReadBits(8)
	if err != nil || v != 0xAB {
		t.Fatalf("got %#x, %v; want 0xab, nil", v, err)
	}
}

// TestReverseReaderOverReadPriming confirms that a nonzero priming call
// (n > 0, the caller's already-negated over-read correction) actually
// discards bits rather than silently doing nothing: priming past the
// first nibble of buf[1] must shift what the next ReadBits returns.
func TestReverseReaderOverReadPriming(t *testing.T) {
	primed := NewReverse([]byte{0xAB, 0xCD})
	if _, err := primed.ReadBits(4); err != nil {
		t.Fatalf("priming ReadBits: %v", err)
	}
	v, err := primed.ReadBits(4)
	if err != nil || v != 0xD {
		t.Fatalf("got %#x, %v; want 0xd, nil", v, err)
	}

	unprimed := NewReverse([]byte{0xAB, 0xCD})
	v, err = unprimed.ReadBits(4)
	if err != nil || v != 0xC {
		t.Fatalf("got %#x, %v; want 0xc, nil (unprimed control)", v, err)
	}
}

// TestReverseReaderZeroPrimingIsNoOp confirms the n == 0 case (a stored
// over-read correction of 0) really does leave the stream untouched.
func TestReverseReaderZeroPrimingIsNoOp(t *testing.T) {
	r := NewReverse([]byte{0xAB, 0xCD})
	v, err := r.ReadBits(0)
	if err != nil || v != 0 {
		t.Fatalf("got %#x, %v; want 0, nil", v, err)
	}
	v, err = r.ReadBits(4)
	if err != nil || v != 0xC {
		t.Fatalf("got %#x, %v; want 0xc, nil", v, err)
	}
}

// TestReverseReaderNegativeNIsAnError confirms a caller that forgets to
// negate the stored over-read correction (and so passes it through
// negative) is rejected rather than silently treated as a no-op.
func TestReverseReaderNegativeNIsAnError(t *testing.T) {
	r := NewReverse([]byte{0xAB, 0xCD})
	_, err := r.ReadBits(-3)
	var se *errs.Error
	if !errors.As(err, &se) || se.Kind != errs.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
