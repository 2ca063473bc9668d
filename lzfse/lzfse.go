// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lzfse implements Apple's LZFSE decoder: a sequence of
// self-delimited blocks (uncompressed, embedded LZVN, and FSE/tANS
// entropy-coded) each producing a run of output bytes. The FSE/tANS
// literal and L/M/D tuple decoders are the core; an embedded lzvn
// block hands off to the lzvn package directly.
package lzfse

import (
	"encoding/binary"

	"github.com/artifactdec/strmdec/bitstream"
	"github.com/artifactdec/strmdec/errs"
	"github.com/artifactdec/strmdec/lzvn"
)

const codecName = "lzfse"

const (
	markerEndOfStream  = "bvx$"
	markerUncompressed = "bvx-"
	markerLZVN         = "bvxn"
	markerCompressedV1 = "bvx1"
	markerCompressedV2 = "bvx2"
)

// freqTables holds the 360 symbol frequencies (256 literal + 20 L +
// 20 M + 64 D) a compressed block decodes against; a v2 block whose
// header_size indicates no packed table present reuses the previous
// block's tables, mirroring the format's block-to-block continuation.
type freqTables struct {
	literal [literalAlphabetSize]uint16
	l       [lmAlphabetSize]uint16
	m       [lmAlphabetSize]uint16
	d       [dAlphabetSize]uint16
}

// Decompress decodes a complete LZFSE block sequence from compressed
// into uncompressed and returns the number of bytes written.
func Decompress(compressed, uncompressed []byte) (int, error) {
	ci := 0
	oi := 0
	var freq freqTables
	haveFreq := false

	for {
		if len(compressed)-ci < 4 {
			return oi, errs.New(codecName, errs.Truncated, "block marker truncated")
		}
		marker := string(compressed[ci : ci+4])
		ci += 4

		switch marker {
		case markerEndOfStream:
			return oi, nil

		case markerUncompressed:
			if len(compressed)-ci < 4 {
				return oi, errs.New(codecName, errs.Truncated, "uncompressed block size truncated")
			}
			n := int(binary.LittleEndian.Uint32(compressed[ci : ci+4]))
			ci += 4
			if ci+n > len(compressed) {
				return oi, errs.New(codecName, errs.Truncated, "uncompressed block payload truncated")
			}
			if oi+n > len(uncompressed) {
				return oi, errs.New(codecName, errs.CapacityExceeded, "uncompressed block exceeds output capacity")
			}
			copy(uncompressed[oi:oi+n], compressed[ci:ci+n])
			ci += n
			oi += n

		case markerLZVN:
			if len(compressed)-ci < 4 {
				return oi, errs.New(codecName, errs.Truncated, "lzvn block size truncated")
			}
			n := int(binary.LittleEndian.Uint32(compressed[ci : ci+4]))
			ci += 4
			if ci+n > len(compressed) {
				return oi, errs.New(codecName, errs.Truncated, "lzvn block payload truncated")
			}
			written, err := lzvn.Decompress(compressed[ci:ci+n], uncompressed[oi:])
			if err != nil {
				return oi, errs.Wrap(codecName, errs.MalformedBlock, "embedded lzvn block", err)
			}
			ci += n
			oi += written

		case markerCompressedV1:
			consumed, written, err := decodeV1Block(compressed[ci:], uncompressed[oi:], &freq)
			if err != nil {
				return oi, err
			}
			haveFreq = true
			ci += consumed
			oi += written

		case markerCompressedV2:
			consumed, written, err := decodeV2Block(compressed[ci:], uncompressed[oi:], &freq, haveFreq)
			if err != nil {
				return oi, err
			}
			haveFreq = true
			ci += consumed
			oi += written

		default:
			return oi, errs.New(codecName, errs.UnsupportedFormat, "unrecognised block marker")
		}
	}
}

const v1HeaderSize = 4*5 + 4 + 4*2 + 4 + 3*2 + 360*2

// decodeV1Block parses a "bvx1" block (marker already consumed) whose
// header carries uncompressed per-symbol frequencies, and runs the
// FSE/tANS decode pass over its literal and LMD payloads.
func decodeV1Block(block, out []byte, freq *freqTables) (consumed int, written int, err error) {
	if len(block) < v1HeaderSize {
		return 0, 0, errs.New(codecName, errs.Truncated, "v1 header truncated")
	}
	r := block
	u32 := func() uint32 { v := binary.LittleEndian.Uint32(r); r = r[4:]; return v }
	u16 := func() uint16 { v := binary.LittleEndian.Uint16(r); r = r[2:]; return v }

	compressedBlockSize := u32()
	nLiterals := int(u32())
	nLMD := int(u32())
	literalsPayloadSize := int(u32())
	lmdPayloadSize := int(u32())
	literalBits := int(int32(u32()))
	var literalStates [4]uint16
	for i := range literalStates {
		literalStates[i] = u16()
	}
	lmdBits := int(int32(u32()))
	lState := u16()
	mState := u16()
	dState := u16()
	for i := 0; i < literalAlphabetSize; i++ {
		freq.literal[i] = u16()
	}
	for i := 0; i < lmAlphabetSize; i++ {
		freq.l[i] = u16()
	}
	for i := 0; i < lmAlphabetSize; i++ {
		freq.m[i] = u16()
	}
	for i := 0; i < dAlphabetSize; i++ {
		freq.d[i] = u16()
	}

	if int(compressedBlockSize) < v1HeaderSize || int(compressedBlockSize) > len(block) {
		return 0, 0, errs.New(codecName, errs.MalformedBlock, "v1 compressed_block_size out of range")
	}
	literalsPayload := block[v1HeaderSize : v1HeaderSize+literalsPayloadSize]
	lmdPayload := block[v1HeaderSize+literalsPayloadSize : v1HeaderSize+literalsPayloadSize+lmdPayloadSize]

	n, err := runDecodePass(freq, literalsPayload, literalBits, literalStates,
		lmdPayload, lmdBits, lState, mState, dState, nLiterals, nLMD, out)
	if err != nil {
		return 0, 0, err
	}
	return int(compressedBlockSize), n, nil
}

// decodeV2Block parses a "bvx2" block whose header bit-packs the same
// fields as v1 across three little-endian u64 words, optionally
// followed by a compressed frequency table. When header_size names no
// trailing table, the previous block's frequencies are reused, which
// is a normal continuation feature of this block type.
func decodeV2Block(block, out []byte, freq *freqTables, haveFreq bool) (consumed int, written int, err error) {
	const packedHeaderSize = 24
	if len(block) < packedHeaderSize {
		return 0, 0, errs.New(codecName, errs.Truncated, "v2 header truncated")
	}
	w0 := binary.LittleEndian.Uint64(block[0:8])
	w1 := binary.LittleEndian.Uint64(block[8:16])
	w2 := binary.LittleEndian.Uint64(block[16:24])

	nLiterals := int(w0 & (1<<20 - 1))
	literalsPayloadSize := int((w0 >> 20) & (1<<20 - 1))
	nLMD := int((w0 >> 40) & (1<<20 - 1))
	literalBits := int(int64((w0>>60)&0x7)) - 7

	var literalStates [4]uint16
	for i := 0; i < 4; i++ {
		literalStates[i] = uint16((w1 >> uint(10*i)) & (1<<10 - 1))
	}
	lmdPayloadSize := int((w1 >> 40) & (1<<20 - 1))
	lmdBits := int(int64((w1>>60)&0x7)) - 7

	headerSize := int(w2 & (1<<32 - 1))
	lState := uint16((w2 >> 32) & (1<<10 - 1))
	mState := uint16((w2 >> 42) & (1<<10 - 1))
	dState := uint16((w2 >> 52) & (1<<10 - 1))

	// header_size counts the 4-byte marker this caller already consumed,
	// so packedHeaderSize+4 is "no trailing frequency table".
	if headerSize > packedHeaderSize+4 {
		return 0, 0, errs.New(codecName, errs.NotImplemented,
			"v2 packed frequency table decoding is not implemented")
	}
	if !haveFreq {
		return 0, 0, errs.New(codecName, errs.MalformedBlock, "v2 block reuses frequencies from a prior block that was never seen")
	}

	body := block[packedHeaderSize:]
	if literalsPayloadSize+lmdPayloadSize > len(body) {
		return 0, 0, errs.New(codecName, errs.Truncated, "v2 payload truncated")
	}
	literalsPayload := body[:literalsPayloadSize]
	lmdPayload := body[literalsPayloadSize : literalsPayloadSize+lmdPayloadSize]

	n, err := runDecodePass(freq, literalsPayload, literalBits, literalStates,
		lmdPayload, lmdBits, lState, mState, dState, nLiterals, nLMD, out)
	if err != nil {
		return 0, 0, err
	}
	return packedHeaderSize + literalsPayloadSize + lmdPayloadSize, n, nil
}

// runDecodePass builds the four FSE decode tables from freq and runs
// the literal pass followed by the L/M/D tuple pass, emitting literal
// runs and back-reference matches into out.
func runDecodePass(freq *freqTables,
	literalsPayload []byte, literalBits int, literalStates [4]uint16,
	lmdPayload []byte, lmdBits int, lState, mState, dState uint16,
	nLiterals, nLMD int, out []byte) (int, error) {

	literalTable, err := buildFSETable(freq.literal[:], literalNumStates)
	if err != nil {
		return 0, err
	}
	lTable, err := buildFSEValueTable(freq.l[:], lmNumStates, lValueTable[:])
	if err != nil {
		return 0, err
	}
	mTable, err := buildFSEValueTable(freq.m[:], lmNumStates, mValueTable[:])
	if err != nil {
		return 0, err
	}
	dTable, err := buildFSEValueTable(freq.d[:], dNumStates, dValueTable[:])
	if err != nil {
		return 0, err
	}

	litValues := make([]byte, nLiterals)
	litR := bitstream.NewReverse(literalsPayload)
	if _, err := litR.ReadBits(-literalBits); err != nil {
		return 0, errs.Wrap(codecName, errs.Truncated, "literal stream over-read priming", err)
	}
	states := literalStates
	for i := 0; i < nLiterals; i += 4 {
		for k := 0; k < 4 && i+k < nLiterals; k++ {
			if int(states[k]) >= len(literalTable) {
				return 0, errs.New(codecName, errs.MalformedBlock, "literal FSE state out of range")
			}
			e := literalTable[states[k]]
			v, err := litR.ReadBits(int(e.nbits))
			if err != nil {
				return 0, errs.Wrap(codecName, errs.Truncated, "literal bitstream underrun", err)
			}
			litValues[i+k] = byte(e.symbol)
			states[k] = uint16(e.delta + int32(v))
		}
	}

	lmdR := bitstream.NewReverse(lmdPayload)
	if _, err := lmdR.ReadBits(-lmdBits); err != nil {
		return 0, errs.Wrap(codecName, errs.Truncated, "lmd stream over-read priming", err)
	}

	readValue := func(table []fseValueEntry, state *uint16) (uint32, error) {
		if int(*state) >= len(table) {
			return 0, errs.New(codecName, errs.MalformedBlock, "FSE state out of range")
		}
		e := table[*state]
		v, err := lmdR.ReadBits(int(e.nbits))
		if err != nil {
			return 0, errs.Wrap(codecName, errs.Truncated, "lmd bitstream underrun", err)
		}
		mask := uint32(1)<<e.valueBits - 1
		*state = uint16(e.delta + int32(v>>e.valueBits))
		return e.valueBase + (v & mask), nil
	}

	litPos := 0
	oi := 0
	var prevD uint32
	for j := 0; j < nLMD; j++ {
		l, err := readValue(lTable, &lState)
		if err != nil {
			return 0, err
		}
		m, err := readValue(mTable, &mState)
		if err != nil {
			return 0, err
		}
		d, err := readValue(dTable, &dState)
		if err != nil {
			return 0, err
		}
		if d != 0 {
			prevD = d
		}

		if litPos+int(l) > len(litValues) {
			return 0, errs.New(codecName, errs.MalformedBlock, "literal run exceeds decoded literal count")
		}
		if oi+int(l) > len(out) {
			return 0, errs.New(codecName, errs.CapacityExceeded, "literal run exceeds output capacity")
		}
		copy(out[oi:oi+int(l)], litValues[litPos:litPos+int(l)])
		litPos += int(l)
		oi += int(l)

		if m > 0 {
			if prevD == 0 || int(prevD) > oi {
				return 0, errs.New(codecName, errs.DistanceOutOfRange, "match distance out of range")
			}
			if oi+int(m) > len(out) {
				return 0, errs.New(codecName, errs.CapacityExceeded, "match run exceeds output capacity")
			}
			src := oi - int(prevD)
			for i := 0; i < int(m); i++ {
				out[oi+i] = out[src+i]
			}
			oi += int(m)
		}
	}
	return oi, nil
}
