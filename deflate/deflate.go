// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deflate implements RFC 1951 DEFLATE decompression: fixed and
// dynamic Huffman blocks, and stored (uncompressed) blocks, plus the
// optional zlib wrapper (RFC 1950) with its Adler-32 trailer.
package deflate

import (
	"github.com/artifactdec/strmdec/bitstream"
	"github.com/artifactdec/strmdec/errs"
	"github.com/artifactdec/strmdec/huffman"
)

const codecName = "deflate"

var (
	fixedLitLenTable *huffman.Table
	fixedDistTable   *huffman.Table
)

func init() {
	var err error
	fixedLitLenTable, err = huffman.Build(fixedLitLenLengths[:], 15, true)
	if err != nil {
		panic("deflate: fixed literal/length table: " + err.Error())
	}
	fixedDistTable, err = huffman.Build(fixedDistLengths[:], 15, true)
	if err != nil {
		panic("deflate: fixed distance table: " + err.Error())
	}
}

// Decompress decodes a raw RFC 1951 DEFLATE stream (no zlib wrapper)
// from compressed into uncompressed, returning the number of bytes
// written.
func Decompress(compressed, uncompressed []byte) (int, error) {
	if len(compressed) == 0 {
		return 0, errs.New(codecName, errs.InvalidArgument, "empty input")
	}
	br := bitstream.New(compressed, bitstream.ByteBackToFront)
	return decodeStream(br, uncompressed)
}

func decodeStream(br *bitstream.Reader, out []byte) (int, error) {
	n := 0
	for {
		bfinal, err := br.ReadBits(1)
		if err != nil {
			return n, errs.Wrap(codecName, errs.Truncated, "reading BFINAL", err)
		}
		btype, err := br.ReadBits(2)
		if err != nil {
			return n, errs.Wrap(codecName, errs.Truncated, "reading BTYPE", err)
		}

		switch btype {
		case 0: // stored
			n, err = decodeStored(br, out, n)
		case 1: // fixed Huffman
			n, err = decodeHuffmanBlock(br, out, n, fixedLitLenTable, fixedDistTable)
		case 2: // dynamic Huffman
			var lit, dist *huffman.Table
			lit, dist, err = readDynamicTables(br)
			if err == nil {
				n, err = decodeHuffmanBlock(br, out, n, lit, dist)
			}
		default: // 3: reserved
			err = errs.New(codecName, errs.MalformedBlock, "reserved BTYPE 11")
		}
		if err != nil {
			return n, err
		}
		if bfinal != 0 {
			return n, nil
		}
	}
}

func decodeStored(br *bitstream.Reader, out []byte, n int) (int, error) {
	br.AlignToByte()
	lenLo, err := br.ReadBits(16)
	if err != nil {
		return n, errs.Wrap(codecName, errs.Truncated, "reading LEN", err)
	}
	nlen, err := br.ReadBits(16)
	if err != nil {
		return n, errs.Wrap(codecName, errs.Truncated, "reading NLEN", err)
	}
	if lenLo&0xffff != (^nlen)&0xffff {
		return n, errs.New(codecName, errs.MalformedBlock, "LEN/NLEN mismatch")
	}
	length := int(lenLo & 0xffff)
	if n+length > len(out) {
		return n, errs.New(codecName, errs.CapacityExceeded, "stored block exceeds output capacity")
	}
	for i := 0; i < length; i++ {
		b, err := br.ReadBits(8)
		if err != nil {
			return n, errs.Wrap(codecName, errs.Truncated, "reading stored byte", err)
		}
		out[n] = byte(b)
		n++
	}
	return n, nil
}

func decodeHuffmanBlock(br *bitstream.Reader, out []byte, n int, lit, dist *huffman.Table) (int, error) {
	for {
		sym, err := lit.Decode(br)
		if err != nil {
			return n, err
		}
		switch {
		case sym < 256:
			if n >= len(out) {
				return n, errs.New(codecName, errs.CapacityExceeded, "literal exceeds output capacity")
			}
			out[n] = byte(sym)
			n++
		case sym == 256:
			return n, nil
		case sym <= 285:
			idx := sym - 257
			length := int(lengthBase[idx])
			if extra := lengthExtra[idx]; extra > 0 {
				v, err := br.ReadBits(int(extra))
				if err != nil {
					return n, errs.Wrap(codecName, errs.Truncated, "reading length extra bits", err)
				}
				length += int(v)
			}
			distSym, err := dist.Decode(br)
			if err != nil {
				return n, err
			}
			if distSym > 29 {
				return n, errs.New(codecName, errs.MalformedBlock, "invalid distance symbol")
			}
			distance := int(distBase[distSym])
			if extra := distExtra[distSym]; extra > 0 {
				v, err := br.ReadBits(int(extra))
				if err != nil {
					return n, errs.Wrap(codecName, errs.Truncated, "reading distance extra bits", err)
				}
				distance += int(v)
			}
			if distance > n {
				return n, errs.New(codecName, errs.DistanceOutOfRange, "back-reference precedes output start")
			}
			if n+length > len(out) {
				return n, errs.New(codecName, errs.CapacityExceeded, "match exceeds output capacity")
			}
			for i := 0; i < length; i++ {
				out[n] = out[n-distance]
				n++
			}
		default: // 286, 287: reserved, RFC 1951 never emits these
			return n, errs.New(codecName, errs.MalformedBlock, "reserved length symbol")
		}
	}
}

func readDynamicTables(br *bitstream.Reader) (lit, dist *huffman.Table, err error) {
	hlit, err := br.ReadBits(5)
	if err != nil {
		return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading HLIT", err)
	}
	hdist, err := br.ReadBits(5)
	if err != nil {
		return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading HDIST", err)
	}
	hclen, err := br.ReadBits(4)
	if err != nil {
		return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading HCLEN", err)
	}
	numLit := int(hlit) + 257
	numDist := int(hdist) + 1
	numCLen := int(hclen) + 4

	var clLengths [19]uint8
	for i := 0; i < numCLen; i++ {
		v, err := br.ReadBits(3)
		if err != nil {
			return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading code-length code lengths", err)
		}
		clLengths[codeLengthOrder[i]] = uint8(v)
	}
	clTable, err := huffman.Build(clLengths[:], 7, true)
	if err != nil {
		return nil, nil, err
	}

	total := numLit + numDist
	lengths := make([]uint8, total)
	for i := 0; i < total; {
		sym, err := clTable.Decode(br)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym <= 15:
			lengths[i] = uint8(sym)
			i++
		case sym == 16:
			if i == 0 {
				return nil, nil, errs.New(codecName, errs.MalformedBlock, "repeat with no previous length")
			}
			v, err := br.ReadBits(2)
			if err != nil {
				return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading repeat-16 count", err)
			}
			count := int(v) + 3
			prev := lengths[i-1]
			for j := 0; j < count && i < total; j++ {
				lengths[i] = prev
				i++
			}
		case sym == 17:
			v, err := br.ReadBits(3)
			if err != nil {
				return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading repeat-17 count", err)
			}
			count := int(v) + 3
			for j := 0; j < count && i < total; j++ {
				lengths[i] = 0
				i++
			}
		case sym == 18:
			v, err := br.ReadBits(7)
			if err != nil {
				return nil, nil, errs.Wrap(codecName, errs.Truncated, "reading repeat-18 count", err)
			}
			count := int(v) + 11
			for j := 0; j < count && i < total; j++ {
				lengths[i] = 0
				i++
			}
		default:
			return nil, nil, errs.New(codecName, errs.MalformedBlock, "invalid code-length symbol")
		}
	}

	lit, err = huffman.Build(lengths[:numLit], 15, true)
	if err != nil {
		return nil, nil, err
	}
	dist, err = huffman.Build(lengths[numLit:], 15, false)
	if err != nil {
		return nil, nil, err
	}
	return lit, dist, nil
}
