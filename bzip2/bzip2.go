// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bzip2 implements BZIP2 decompression: the multi-tree Huffman
// stage, move-to-front and run-length decoding, the inverse
// Burrows-Wheeler transform, and per-block/per-stream CRC-32
// verification. Ported from the block-decode core of Go's
// compress/bzip2 (and the pbzip2 project's adaptation of it) to the
// single-shot, whole-buffer contract this module's codecs share, using
// the bitstream and huffman packages instead of private equivalents.
package bzip2

import (
	"github.com/artifactdec/strmdec/bitstream"
	"github.com/artifactdec/strmdec/checksum"
	"github.com/artifactdec/strmdec/errs"
	"github.com/artifactdec/strmdec/huffman"
)

const codecName = "bzip2"

const (
	blockMagic = 0x314159265359
	eosMagic   = 0x177245385090

	maxBlockSize     = 900000
	maxSelectors     = 18002
	minHuffmanTrees  = 2
	maxHuffmanTrees  = 6
	maxHuffmanLength = 20
)

// Decompress decodes a complete BZIP2 stream — header, one or more
// blocks, and footer CRC — from compressed into uncompressed, returning
// the number of bytes written. Concatenated streams (a second "BZh..."
// header appended to the first) are decoded in sequence, matching the
// bzip2 command-line tool's convention.
func Decompress(compressed, uncompressed []byte) (int, error) {
	if len(compressed) < 4 {
		return 0, errs.New(codecName, errs.Truncated, "input shorter than the file header")
	}
	n := 0
	rest := compressed
	for {
		consumed, written, err := decompressOneStream(rest, uncompressed[n:])
		if err != nil {
			return n, err
		}
		n += written
		rest = rest[consumed:]
		if len(rest) == 0 {
			return n, nil
		}
		if len(rest) < 4 || rest[0] != 'B' || rest[1] != 'Z' {
			// Trailing garbage after a well-formed stream: stop here,
			// the caller only asked for the bzip2 payload.
			return n, nil
		}
	}
}

// decompressOneStream decodes exactly one "BZh<level>"-prefixed stream
// (through its footer) and reports how many compressed bytes it
// consumed along with how many uncompressed bytes it produced.
func decompressOneStream(compressed, out []byte) (consumed int, written int, err error) {
	if compressed[0] != 'B' || compressed[1] != 'Z' || compressed[2] != 'h' {
		return 0, 0, errs.New(codecName, errs.UnsupportedFormat, "bad magic value")
	}
	level := compressed[3]
	if level < '1' || level > '9' {
		return 0, 0, errs.New(codecName, errs.UnsupportedFormat, "invalid compression level")
	}
	blockSize := 100 * 1000 * int(level-'0')
	if blockSize > maxBlockSize {
		return 0, 0, errs.New(codecName, errs.InternalLimit, "block size exceeds 900000")
	}

	br := bitstream.New(compressed[4:], bitstream.ByteFrontToBack)
	tt := make([]uint32, blockSize)
	var streamCRC uint32
	n := 0

	for {
		magic, err := readMagic48(br)
		if err != nil {
			return 0, n, errs.Wrap(codecName, errs.Truncated, "reading block/footer magic", err)
		}
		switch magic {
		case blockMagic:
			blockCRC, m, werr := readBlock(br, out[n:], tt)
			if werr != nil {
				return 0, n, werr
			}
			streamCRC = checksum.CombineBlockCRC(streamCRC, blockCRC)
			n += m
		case eosMagic:
			wantStreamCRC, err := br.ReadBits(32)
			if err != nil {
				return 0, n, errs.Wrap(codecName, errs.Truncated, "reading stream CRC", err)
			}
			if wantStreamCRC != streamCRC {
				return 0, n, errs.New(codecName, errs.ChecksumMismatch, "stream checksum mismatch")
			}
			br.AlignToByte()
			return 4 + br.Pos(), n, nil
		default:
			return 0, n, errs.New(codecName, errs.MalformedBlock, "bad magic value found")
		}
	}
}

// readMagic48 reads a 48-bit big-endian value as two reads, since
// bitstream.Reader.ReadBits is bounded to 32 bits.
func readMagic48(br *bitstream.Reader) (uint64, error) {
	hi, err := br.ReadBits(16)
	if err != nil {
		return 0, err
	}
	lo, err := br.ReadBits(32)
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// readBlock decodes one bzip2 block (the block-magic has already been
// consumed) and returns its CRC and the number of uncompressed bytes it
// produced.
func readBlock(br *bitstream.Reader, out []byte, tt []uint32) (blockCRC uint32, written int, err error) {
	wantBlockCRC, err := br.ReadBits(32)
	if err != nil {
		return 0, 0, errs.Wrap(codecName, errs.Truncated, "reading block CRC", err)
	}
	randomized, err := br.ReadBits(1)
	if err != nil {
		return 0, 0, errs.Wrap(codecName, errs.Truncated, "reading randomized bit", err)
	}
	if randomized != 0 {
		return 0, 0, errs.New(codecName, errs.UnsupportedFormat, "deprecated randomized blocks")
	}
	origPtrV, err := br.ReadBits(24)
	if err != nil {
		return 0, 0, errs.Wrap(codecName, errs.Truncated, "reading origin pointer", err)
	}
	origPtr := uint(origPtrV)

	symbolPresent, numSymbols, err := readSymbolMap(br)
	if err != nil {
		return 0, 0, err
	}

	numTrees, err := br.ReadBits(3)
	if err != nil {
		return 0, 0, errs.Wrap(codecName, errs.Truncated, "reading number of trees", err)
	}
	if numTrees < minHuffmanTrees || numTrees > maxHuffmanTrees {
		return 0, 0, errs.New(codecName, errs.MalformedBlock, "invalid number of Huffman trees")
	}

	numSelectorsV, err := br.ReadBits(15)
	if err != nil {
		return 0, 0, errs.Wrap(codecName, errs.Truncated, "reading number of selectors", err)
	}
	numSelectors := int(numSelectorsV)
	if numSelectors == 0 || numSelectors > maxSelectors {
		return 0, 0, errs.New(codecName, errs.MalformedBlock, "invalid number of selectors")
	}

	treeIndexes, err := readSelectors(br, numSelectors, int(numTrees))
	if err != nil {
		return 0, 0, err
	}

	symbols := make([]byte, numSymbols)
	next := 0
	for i := 0; i < 256; i++ {
		if symbolPresent[i] {
			symbols[next] = byte(i)
			next++
		}
	}
	mtf := newMTFDecoder(symbols)
	numSymbolsWithEOB := numSymbols + 2 // RUNA, RUNB, and the MTF alphabet; EOB is the last value

	trees, err := readHuffmanTrees(br, int(numTrees), numSymbolsWithEOB)
	if err != nil {
		return 0, 0, err
	}

	bufIndex, err := decodeMTFRLE(br, trees, treeIndexes, mtf, numSymbolsWithEOB, tt)
	if err != nil {
		return 0, 0, err
	}

	if origPtr >= uint(bufIndex) {
		return 0, 0, errs.New(codecName, errs.MalformedBlock, "origin pointer out of bounds")
	}

	written, err = inverseBWTAndRLE(tt[:bufIndex], origPtr, out)
	if err != nil {
		return 0, 0, err
	}

	var crc checksum.CRC32BZIP
	crc.Write(out[:written])
	if crc.Sum32() != wantBlockCRC {
		return 0, 0, errs.New(codecName, errs.ChecksumMismatch, "block checksum mismatch")
	}
	return wantBlockCRC, written, nil
}

// readSymbolMap reads the two-level 16x16 bitmap of symbols present in
// the block.
func readSymbolMap(br *bitstream.Reader) (present [256]bool, numSymbols int, err error) {
	topBitmap, err := br.ReadBits(16)
	if err != nil {
		return present, 0, errs.Wrap(codecName, errs.Truncated, "reading symbol bitmap", err)
	}
	for symRange := uint(0); symRange < 16; symRange++ {
		if topBitmap&(1<<(15-symRange)) == 0 {
			continue
		}
		bits, err := br.ReadBits(16)
		if err != nil {
			return present, 0, errs.Wrap(codecName, errs.Truncated, "reading symbol sub-bitmap", err)
		}
		for sym := uint(0); sym < 16; sym++ {
			if bits&(1<<(15-sym)) != 0 {
				present[16*symRange+sym] = true
				numSymbols++
			}
		}
	}
	if numSymbols == 0 {
		return present, 0, errs.New(codecName, errs.MalformedBlock, "no symbols present in block")
	}
	return present, numSymbols, nil
}

// readSelectors reads the MTF- and unary-encoded tree-selector stream.
func readSelectors(br *bitstream.Reader, numSelectors, numTrees int) ([]uint8, error) {
	treeIndexes := make([]uint8, numSelectors)
	mtf := newMTFDecoderWithRange(numTrees)
	for i := range treeIndexes {
		c := 0
		for {
			bit, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Wrap(codecName, errs.Truncated, "reading selector unary code", err)
			}
			if bit == 0 {
				break
			}
			c++
			if c >= numTrees {
				return nil, errs.New(codecName, errs.MalformedBlock, "tree index too large")
			}
		}
		treeIndexes[i] = mtf.Decode(c)
	}
	return treeIndexes, nil
}

// readHuffmanTrees reads numTrees delta-encoded code-length sequences,
// each of numSymbols symbols, and builds a canonical Huffman table from
// each.
func readHuffmanTrees(br *bitstream.Reader, numTrees, numSymbols int) ([]*huffman.Table, error) {
	trees := make([]*huffman.Table, numTrees)
	lengths := make([]uint8, numSymbols)
	for t := 0; t < numTrees; t++ {
		lengthV, err := br.ReadBits(5)
		if err != nil {
			return nil, errs.Wrap(codecName, errs.Truncated, "reading initial code length", err)
		}
		length := int(lengthV)
		for j := 0; j < numSymbols; j++ {
			for {
				if length < 1 || length > maxHuffmanLength {
					return nil, errs.New(codecName, errs.MalformedBlock, "Huffman length out of range")
				}
				bit, err := br.ReadBits(1)
				if err != nil {
					return nil, errs.Wrap(codecName, errs.Truncated, "reading length delta bit", err)
				}
				if bit == 0 {
					break
				}
				sign, err := br.ReadBits(1)
				if err != nil {
					return nil, errs.Wrap(codecName, errs.Truncated, "reading length delta sign", err)
				}
				if sign == 1 {
					length--
				} else {
					length++
				}
			}
			lengths[j] = uint8(length)
		}
		tree, err := huffman.Build(lengths, maxHuffmanLength, true)
		if err != nil {
			return nil, err
		}
		trees[t] = tree
	}
	return trees, nil
}

// decodeMTFRLE runs the Huffman-decoded, MTF/RLE-encoded symbol stream
// into tt, producing the pre-inverse-BWT buffer. It returns the number
// of entries written to tt.
func decodeMTFRLE(br *bitstream.Reader, trees []*huffman.Table, treeIndexes []uint8, mtf *mtfDecoder, numSymbols int, tt []uint32) (int, error) {
	selectorIndex := 1
	if int(treeIndexes[0]) >= len(trees) {
		return 0, errs.New(codecName, errs.MalformedBlock, "tree selector out of range")
	}
	currentTree := trees[treeIndexes[0]]

	bufIndex := 0
	repeat := 0
	repeatPower := 0
	decoded := 0

	for {
		if decoded == 50 {
			if selectorIndex >= len(treeIndexes) {
				return 0, errs.New(codecName, errs.MalformedBlock, "insufficient selectors for symbol count")
			}
			if int(treeIndexes[selectorIndex]) >= len(trees) {
				return 0, errs.New(codecName, errs.MalformedBlock, "tree selector out of range")
			}
			currentTree = trees[treeIndexes[selectorIndex]]
			selectorIndex++
			decoded = 0
		}

		v, err := currentTree.Decode(br)
		if err != nil {
			return 0, err
		}
		decoded++

		if v < 2 {
			if repeat == 0 {
				repeatPower = 1
			}
			repeat += repeatPower << v
			repeatPower <<= 1
			if repeat > 2*1024*1024 {
				return 0, errs.New(codecName, errs.MalformedBlock, "repeat count too large")
			}
			continue
		}

		if repeat > 0 {
			if repeat > len(tt)-bufIndex {
				return 0, errs.New(codecName, errs.InternalLimit, "repeat run exceeds block size")
			}
			b := mtf.First()
			for i := 0; i < repeat; i++ {
				tt[bufIndex+i] = uint32(b)
			}
			bufIndex += repeat
			repeat = 0
		}

		if int(v) == numSymbols-1 {
			break
		}

		b := mtf.Decode(int(v - 1))
		if bufIndex >= len(tt) {
			return 0, errs.New(codecName, errs.InternalLimit, "block data exceeds block size")
		}
		tt[bufIndex] = uint32(b)
		bufIndex++
	}

	return bufIndex, nil
}
