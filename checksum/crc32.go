// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package checksum

import (
	"hash/crc32"
	"math/bits"
)

// CRC32BZIP implements the bzip2 stream/block checksum: polynomial
// 0x04C11DB7, MSB-first, initial 0xFFFFFFFF, final XOR 0xFFFFFFFF.
// stdlib's hash/crc32 only exposes the reflected (LSB-first) IEEE table,
// so, as in the teacher package, each byte and the running value are
// bit-reversed around a call to crc32.Update with the IEEE table — the
// bzip2 source's lazily-initialized table becomes this compile-time
// stdlib table instead (spec §9).
type CRC32BZIP struct {
	val uint32
	buf [256]byte
}

// NewCRC32BZIP returns a checksum accumulator in its initial state.
func NewCRC32BZIP() CRC32BZIP { return CRC32BZIP{} }

// Write feeds buf into the running checksum.
func (c *CRC32BZIP) Write(buf []byte) {
	cval := bits.Reverse32(c.val)
	for len(buf) > 0 {
		n := copy(c.buf[:], buf)
		buf = buf[n:]
		for i, b := range c.buf[:n] {
			c.buf[i] = bits.Reverse8(b)
		}
		cval = crc32.Update(cval, crc32.IEEETable, c.buf[:n])
	}
	c.val = bits.Reverse32(cval)
}

// Sum32 returns the CRC-32 of all bytes written so far. hash/crc32's
// Update already folds in the standard algorithm's initial value and
// final XOR (both 0xFFFFFFFF) when called starting from crc=0, which is
// what bits.Reverse32 of the zero value yields, so no further XOR is
// needed here.
func (c *CRC32BZIP) Sum32() uint32 {
	return c.val
}

// CombineBlockCRC folds a per-block CRC into the running stream CRC, per
// bzip2's block-combination rule.
func CombineBlockCRC(streamCRC, blockCRC uint32) uint32 {
	return ((streamCRC << 1) | (streamCRC >> 31)) ^ blockCRC
}

// CRC32BZIPOf is a one-shot convenience helper.
func CRC32BZIPOf(buf []byte) uint32 {
	c := NewCRC32BZIP()
	c.Write(buf)
	return c.Sum32()
}
