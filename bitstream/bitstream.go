// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitstream implements the shared bit-level reader used by every
// codec in this module: a forward reader over an immutable byte buffer
// that supports the two storage orders bzip2/DEFLATE disagree on, and a
// reverse reader used by LZFSE's sub-streams.
//
// A Reader never outlives the buffer it was constructed over; it borrows
// the slice read-only and holds no other resources.
package bitstream

import "github.com/artifactdec/strmdec/errs"

// Order selects how a Reader packs bytes into its bit accumulator.
type Order int

const (
	// ByteFrontToBack fills the accumulator by shifting the buffer
	// high (acc = (acc<<8)|byte); an n-bit value is the top n bits of
	// the accumulator. Used by BZIP2 and LZFSE's forward reader.
	ByteFrontToBack Order = iota
	// ByteBackToFront fills the accumulator at the top
	// (acc |= byte<<accBits); an n-bit value is the bottom n bits of
	// the accumulator. Used by DEFLATE.
	ByteBackToFront
)

const codecName = "bitstream"

// Reader extracts bits, in order, from a borrowed byte buffer.
type Reader struct {
	buf    []byte
	cursor int // next unread byte
	order  Order

	acc  uint64 // bit accumulator, up to 32 valid bits
	bits uint   // number of valid bits in acc
}

// New constructs a Reader over buf starting at byte offset 0.
func New(buf []byte, order Order) *Reader {
	return &Reader{buf: buf, order: order}
}

// BitsRemaining reports the number of unconsumed bits, accumulator
// included.
func (r *Reader) BitsRemaining() int {
	return int(r.bits) + 8*(len(r.buf)-r.cursor)
}

// refill tops up the accumulator with up to 4 bytes, never exceeding 32
// valid bits, per the invariant in spec §3.
func (r *Reader) refill() {
	for r.bits <= 24 && r.cursor < len(r.buf) {
		b := uint64(r.buf[r.cursor])
		r.cursor++
		switch r.order {
		case ByteFrontToBack:
			r.acc = (r.acc << 8) | b
		case ByteBackToFront:
			r.acc |= b << r.bits
		}
		r.bits += 8
	}
}

// ReadBits returns the next n bits (1 <= n <= 32) and consumes them.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, errs.New(codecName, errs.InvalidArgument, "n out of range")
	}
	if int(r.bits) < n {
		r.refill()
	}
	if int(r.bits) < n && r.cursor < len(r.buf) {
		// The accumulator holds at most 32 bits and refills a whole byte
		// at a time, so a wide read that starts mid-byte is split: drain
		// the buffered bits, then read the rest after a refill.
		first := int(r.bits)
		hi, _ := r.ReadBits(first)
		lo, err := r.ReadBits(n - first)
		if err != nil {
			return 0, err
		}
		if r.order == ByteFrontToBack {
			return hi<<uint(n-first) | lo, nil
		}
		return hi | lo<<uint(first), nil
	}
	if int(r.bits) < n {
		return 0, errs.New(codecName, errs.Truncated, "not enough bits remaining")
	}
	var v uint32
	switch r.order {
	case ByteFrontToBack:
		if n == 32 {
			// bit_stream_get_value historically zeroes the
			// accumulator when n equals the accumulator width;
			// preserved for bit-exact compatibility (spec §9).
			v = uint32(r.acc)
			r.acc = 0
			r.bits = 0
			return v, nil
		}
		v = uint32(r.acc>>(r.bits-uint(n))) & ((1 << uint(n)) - 1)
	case ByteBackToFront:
		if n == 32 {
			v = uint32(r.acc)
			r.acc = 0
			r.bits = 0
			return v, nil
		}
		v = uint32(r.acc) & ((1 << uint(n)) - 1)
		r.acc >>= uint(n)
	}
	r.bits -= uint(n)
	return v, nil
}

// ReadBit reads a single bit as a bool.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.ReadBits(1)
	return v != 0, err
}

// PeekBits refills the accumulator so that at least n bits (if
// available) are present, without consuming any of them.
func (r *Reader) PeekBits(n int) {
	if int(r.bits) < n {
		r.refill()
	}
}

// Consume discards n already-accumulated bits without returning them. n
// must not exceed the number of valid bits currently buffered.
func (r *Reader) Consume(n int) error {
	if n < 0 || uint(n) > r.bits {
		return errs.New(codecName, errs.Truncated, "consume exceeds buffered bits")
	}
	if r.order == ByteBackToFront {
		r.acc >>= uint(n)
	}
	// ByteFrontToBack: the consumed bits are the top of the valid
	// window; decrementing bits alone retires them, since ReadBits
	// always indexes from the current r.bits downward.
	r.bits -= uint(n)
	return nil
}

// AlignToByte discards 0..7 bits to reach the next byte boundary of the
// original stream.
func (r *Reader) AlignToByte() {
	rem := r.bits % 8
	if rem == 0 {
		return
	}
	_ = r.Consume(int(rem))
}

// Pos reports the number of bytes of the underlying buffer consumed so
// far, accumulator included. Valid only when bits is a multiple of 8,
// which AlignToByte guarantees.
func (r *Reader) Pos() int {
	return r.cursor - int(r.bits)/8
}

// SeekByte resets the byte cursor to offset and empties the accumulator.
func (r *Reader) SeekByte(offset int) error {
	if offset < 0 || offset > len(r.buf) {
		return errs.New(codecName, errs.Truncated, "seek past end of buffer")
	}
	r.cursor = offset
	r.acc = 0
	r.bits = 0
	return nil
}

// ReverseReader consumes bytes from the high end of a sub-buffer
// downward into a bit accumulator. LZFSE's literal and LMD streams are
// read this way: the compressed cursor decrements rather than
// increments. Constructed with NewReverse; distinct from Reader because the
// decrement-on-refill behaviour is materially different, not just a
// storage-order flag (spec §9).
type ReverseReader struct {
	buf    []byte
	cursor int // index one past the next unread byte, counting down

	acc  uint64
	bits uint
}

// NewReverse constructs a ReverseReader over buf, starting with the
// cursor at len(buf) and decrementing on refill.
func NewReverse(buf []byte) *ReverseReader {
	return &ReverseReader{buf: buf, cursor: len(buf)}
}

func (r *ReverseReader) refill() {
	for r.bits <= 24 && r.cursor > 0 {
		r.cursor--
		b := uint64(r.buf[r.cursor])
		r.acc = (r.acc << 8) | b
		r.bits += 8
	}
}

// ReadBits returns the next n bits (0 <= n <= 32), MSB-first as they
// appear walking the buffer backwards, and consumes them. LZFSE primes
// each sub-stream with a read_bits(-bits) call representing an
// intentional over-read correction stored in the header as a value in
// (-7..0]; callers negate that stored value before calling so n here
// is always the positive number of bits to discard (0 when the stored
// correction is already 0). n == 0 is a legitimate no-op that consumes
// nothing; n < 0 means a caller forgot to negate the stored value.
func (r *ReverseReader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, errs.New("bitstream.reverse", errs.InvalidArgument, "n must not be negative, caller must negate the stored over-read correction")
	}
	if n > 32 {
		return 0, errs.New("bitstream.reverse", errs.InvalidArgument, "n out of range")
	}
	if int(r.bits) < n {
		r.refill()
	}
	if int(r.bits) < n && r.cursor > 0 {
		// As in Reader.ReadBits: split a wide read that the 32-bit
		// accumulator cannot hold in one refill.
		first := int(r.bits)
		hi, _ := r.ReadBits(first)
		lo, err := r.ReadBits(n - first)
		if err != nil {
			return 0, err
		}
		return hi<<uint(n-first) | lo, nil
	}
	if int(r.bits) < n {
		return 0, errs.New("bitstream.reverse", errs.Truncated, "not enough bits remaining")
	}
	v := uint32(r.acc>>(r.bits-uint(n))) & ((1 << uint(n)) - 1)
	r.bits -= uint(n)
	return v, nil
}
