// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzfse

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDecompressUncompressedBlock(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(markerUncompressed)
	binary.Write(&buf, binary.LittleEndian, uint32(5))
	buf.WriteString("hello")
	buf.WriteString(markerEndOfStream)

	out := make([]byte, 16)
	n, err := Decompress(buf.Bytes(), out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got, want := string(out[:n]), "hello"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecompressEmbeddedLZVN(t *testing.T) {
	lzvnPayload := []byte{
		0xE2, 'h', 'i', // literal small, L=2
		0x06, // end of stream
	}
	var buf bytes.Buffer
	buf.WriteString(markerLZVN)
	binary.Write(&buf, binary.LittleEndian, uint32(len(lzvnPayload)))
	buf.Write(lzvnPayload)
	buf.WriteString(markerEndOfStream)

	out := make([]byte, 16)
	n, err := Decompress(buf.Bytes(), out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got, want := string(out[:n]), "hi"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestDecompressV1Block hand-builds a "bvx1" block whose four
// alphabets are each collapsed to a single symbol (frequency equal to
// the state count), which the table-construction formula in
// buildFSETable assigns zero extra bits per symbol: every literal
// decodes to 'A' and the lone (L,M,D) tuple decodes to (5,0,0). This
// lets the literal and LMD payloads be empty, avoiding the need to
// hand-encode a real FSE bitstream while still exercising header
// parsing, table construction, and the decode pass end to end.
func TestDecompressV1Block(t *testing.T) {
	var h bytes.Buffer
	w32 := func(v uint32) { binary.Write(&h, binary.LittleEndian, v) }
	w16 := func(v uint16) { binary.Write(&h, binary.LittleEndian, v) }

	w32(uint32(v1HeaderSize)) // compressed_block_size
	w32(5)                    // n_literals
	w32(1)                    // n_lmd
	w32(0)                    // literals_payload_size
	w32(0)                    // lmd_payload_size
	w32(0)                    // literal_bits
	w16(0)
	w16(0)
	w16(0)
	w16(0) // literal states
	w32(0) // lmd_bits
	w16(0)
	w16(0)
	w16(0) // l_state, m_state, d_state

	var litFreq [literalAlphabetSize]uint16
	litFreq['A'] = literalNumStates
	for _, f := range litFreq {
		w16(f)
	}
	var lFreq [lmAlphabetSize]uint16
	lFreq[5] = lmNumStates
	for _, f := range lFreq {
		w16(f)
	}
	var mFreq [lmAlphabetSize]uint16
	mFreq[0] = lmNumStates
	for _, f := range mFreq {
		w16(f)
	}
	var dFreq [dAlphabetSize]uint16
	dFreq[0] = dNumStates
	for _, f := range dFreq {
		w16(f)
	}

	if h.Len() != v1HeaderSize {
		t.Fatalf("constructed header is %d bytes, want %d", h.Len(), v1HeaderSize)
	}

	var buf bytes.Buffer
	buf.WriteString(markerCompressedV1)
	buf.Write(h.Bytes())
	buf.WriteString(markerEndOfStream)

	out := make([]byte, 16)
	n, err := Decompress(buf.Bytes(), out)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got, want := string(out[:n]), "AAAAA"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
