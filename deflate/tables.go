// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deflate

// fixedLitLenLengths is the RFC 1951 §3.2.6 fixed literal/length code
// length table: a compile-time constant, not the lazily built table the
// C sources this module is ported from construct on first use (spec
// §9).
var fixedLitLenLengths = func() [288]uint8 {
	var l [288]uint8
	for i := 0; i < 144; i++ {
		l[i] = 8
	}
	for i := 144; i < 256; i++ {
		l[i] = 9
	}
	for i := 256; i < 280; i++ {
		l[i] = 7
	}
	for i := 280; i < 288; i++ {
		l[i] = 8
	}
	return l
}()

// fixedDistLengths is the RFC 1951 fixed distance code length table:
// all 32 distance codes are 5 bits. Codes 30 and 31 complete the tree
// but never occur in valid data; decodeHuffmanBlock rejects them.
var fixedDistLengths = func() [32]uint8 {
	var l [32]uint8
	for i := range l {
		l[i] = 5
	}
	return l
}()

// codeLengthOrder is the fixed permutation RFC 1951 §3.2.7 uses to read
// the HCLEN code-length code lengths.
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase/lengthExtra decode length symbols 257..285 into a base
// length and number of extra bits to read and add.
var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}
var lengthExtra = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase/distExtra decode distance symbols 0..29 into a base distance
// and number of extra bits to read and add.
var distBase = [30]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}
var distExtra = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}
