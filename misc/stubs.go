// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package misc

import "github.com/artifactdec/strmdec/errs"

// DecompressLZXPRESS reports NotImplemented: the retrieval pack carries
// no complete reference for Microsoft's plain LZXPRESS (MS-XCA) match
// encoding, only fragments of LZNT1's chunked wrapper around a similar
// LZ77 core.
func DecompressLZXPRESS(compressed, uncompressed []byte) (int, error) {
	return 0, errs.New(codecName, errs.NotImplemented, "LZXPRESS is not implemented")
}

// DecompressLZNT1 reports NotImplemented. LZNT1 wraps LZXPRESS-style
// match/literal tokens in 4096-byte chunks, each with a 2-byte header
// whose top bit flags compressed vs. stored; full support needs the
// LZXPRESS core above, which is unimplemented.
func DecompressLZNT1(compressed, uncompressed []byte) (int, error) {
	return 0, errs.New(codecName, errs.NotImplemented, "LZNT1 is not implemented")
}

// DecompressLZX reports NotImplemented: LZX's Huffman-coded block
// types, sliding-window translation for x86 call instructions, and
// 16-bit little-endian ByteFrontToBack bit order are a materially
// larger undertaking than this module's other MiscCodecs members.
func DecompressLZX(compressed, uncompressed []byte) (int, error) {
	return 0, errs.New(codecName, errs.NotImplemented, "LZX is not implemented")
}
