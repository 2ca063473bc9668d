// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deflate

import (
	"github.com/artifactdec/strmdec/bitstream"
	"github.com/artifactdec/strmdec/checksum"
	"github.com/artifactdec/strmdec/errs"
)

// DecompressZlib decodes a zlib-wrapped (RFC 1950) DEFLATE stream: a
// 2-byte CMF/FLG header, the DEFLATE body, and a trailing 4-byte
// big-endian Adler-32 of the uncompressed data, which is verified
// against the bytes actually produced.
func DecompressZlib(compressed, uncompressed []byte) (int, error) {
	if len(compressed) < 6 {
		return 0, errs.New(codecName, errs.Truncated, "zlib stream shorter than header+trailer")
	}
	cmf, flg := compressed[0], compressed[1]
	if cmf&0x0f != 8 {
		return 0, errs.New(codecName, errs.UnsupportedFormat, "CM is not 8 (deflate)")
	}
	if cmf>>4 > 7 {
		return 0, errs.New(codecName, errs.UnsupportedFormat, "CINFO exceeds 7")
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return 0, errs.New(codecName, errs.MalformedBlock, "CMF/FLG header check failed")
	}
	if flg&0x20 != 0 {
		return 0, errs.New(codecName, errs.UnsupportedFormat, "preset dictionary not supported")
	}

	br := bitstream.New(compressed[2:], bitstream.ByteBackToFront)
	n, err := decodeStream(br, uncompressed)
	if err != nil {
		return n, err
	}

	br.AlignToByte()
	var stored uint32
	for i := 0; i < 4; i++ {
		b, err := br.ReadBits(8)
		if err != nil {
			return n, errs.Wrap(codecName, errs.Truncated, "reading Adler-32 trailer", err)
		}
		stored = stored<<8 | b
	}
	computed := checksum.Adler32Of(uncompressed[:n])
	if stored != computed {
		return n, errs.New(codecName, errs.ChecksumMismatch, "Adler-32 mismatch")
	}
	return n, nil
}
