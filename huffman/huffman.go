// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package huffman implements the canonical Huffman table shared by the
// bzip2 and DEFLATE codecs: build a table from per-symbol code lengths,
// then decode symbols bit-by-bit from a bitstream.Reader of either
// storage order. Adapted from the binary-tree decoder in Go's
// compress/bzip2 package, generalized so it no longer assumes bzip2's
// particular alphabet or bit order.
package huffman

import (
	"sort"

	"github.com/artifactdec/strmdec/bitstream"
	"github.com/artifactdec/strmdec/errs"
)

const codecName = "huffman"

const invalidNode = 0xffff

// node is a non-leaf node in the tree. left/right index into Table.nodes;
// invalidNode marks a leaf, whose value is in leftValue/rightValue.
type node struct {
	left, right           uint16
	leftValue, rightValue uint16
}

// Table is an immutable canonical Huffman table built from per-symbol
// code lengths. The zero value is not usable; construct with Build.
type Table struct {
	nodes    []node
	nextNode int
	maxLen   int
	unused   bool // built from an all-zero length array (complete=false only)
}

type symLen struct {
	value  uint16
	length uint8
}

type code struct {
	code    uint32
	codeLen uint8
	value   uint16
}

// Build constructs a canonical Huffman table from lengths, where
// lengths[i] is the code length of symbol i and 0 means the symbol is
// unused. maxLen bounds the longest code length the codec permits
// (<=32). complete, when true, requires the Kraft sum to equal exactly
// 2^maxLen (DEFLATE dynamic trees and bzip2 trees); when false, a sum
// <=2^maxLen is accepted (DEFLATE allows under-full trees in some
// historical encoders via RFC1951's "incomplete" note for distance
// codes with a single used symbol).
func Build(lengths []uint8, maxLen int, complete bool) (*Table, error) {
	if len(lengths) < 1 {
		return nil, errs.New(codecName, errs.InvalidArgument, "no symbols")
	}
	if maxLen < 1 || maxLen > 32 {
		return nil, errs.New(codecName, errs.InvalidArgument, "maxLen out of range")
	}

	var used []symLen
	for i, l := range lengths {
		if l == 0 {
			continue
		}
		if int(l) > maxLen {
			return nil, errs.New(codecName, errs.MalformedBlock, "code length exceeds maxLen")
		}
		used = append(used, symLen{value: uint16(i), length: l})
	}
	if len(used) == 0 {
		if complete {
			return nil, errs.New(codecName, errs.MalformedBlock, "empty Huffman table")
		}
		// DEFLATE permits an entirely unused distance alphabet when a
		// block encodes no back-references at all; Decode reports an
		// error only if such a table is actually consulted.
		return &Table{maxLen: maxLen, unused: true}, nil
	}

	if err := checkKraft(used, maxLen, complete); err != nil {
		return nil, err
	}

	if len(used) == 1 {
		t := &Table{maxLen: maxLen}
		t.nodes = []node{{left: invalidNode, right: invalidNode, leftValue: used[0].value, rightValue: used[0].value}}
		t.nextNode = 1
		return t, nil
	}

	sort.Slice(used, func(i, j int) bool {
		if used[i].length != used[j].length {
			return used[i].length < used[j].length
		}
		return used[i].value < used[j].value
	})

	codes := assignCodes(used)

	sort.Slice(codes, func(i, j int) bool { return codes[i].code < codes[j].code })

	t := &Table{maxLen: maxLen}
	t.nodes = make([]node, len(codes)-1)
	if _, err := buildNode(t, codes, 0); err != nil {
		return nil, err
	}
	return t, nil
}

// checkKraft validates Sigma 2^(maxlen-len_i) against 2^maxlen.
func checkKraft(used []symLen, maxLen int, complete bool) error {
	var sum uint64
	one := uint64(1) << uint(maxLen)
	for _, s := range used {
		sum += one >> uint(s.length)
	}
	if sum > one {
		return errs.New(codecName, errs.MalformedBlock, "Kraft sum exceeds 1")
	}
	if complete && sum != one && len(used) > 1 {
		return errs.New(codecName, errs.MalformedBlock, "Kraft sum is not exactly 1")
	}
	return nil
}

// assignCodes packs canonical codes into the most-significant end of a
// uint32, longest code first, so that sorting by code groups the left
// half of each branch together, recursively, exactly mirroring RFC1951 +
// bzip2's shared canonical assignment rule.
func assignCodes(sorted []symLen) []code {
	codes := make([]code, len(sorted))
	c := uint32(0)
	length := uint8(32)
	for i := len(sorted) - 1; i >= 0; i-- {
		if length > sorted[i].length {
			length = sorted[i].length
		}
		codes[i].code = c
		codes[i].codeLen = length
		codes[i].value = sorted[i].value
		c += 1 << (32 - length)
	}
	return codes
}

func buildNode(t *Table, codes []code, level uint32) (nodeIndex uint16, err error) {
	test := uint32(1) << (31 - level)

	split := len(codes)
	for i, c := range codes {
		if c.code&test != 0 {
			split = i
			break
		}
	}
	left, right := codes[:split], codes[split:]

	if len(left) == 0 || len(right) == 0 {
		if len(codes) < 2 {
			return 0, errs.New(codecName, errs.MalformedBlock, "empty branch in Huffman tree")
		}
		if level == 31 {
			return 0, errs.New(codecName, errs.MalformedBlock, "duplicate codes in Huffman tree")
		}
		if len(left) == 0 {
			return buildNode(t, right, level+1)
		}
		return buildNode(t, left, level+1)
	}

	nodeIndex = uint16(t.nextNode)
	n := &t.nodes[t.nextNode]
	t.nextNode++

	if len(left) == 1 {
		n.left = invalidNode
		n.leftValue = left[0].value
	} else if n.left, err = buildNode(t, left, level+1); err != nil {
		return 0, err
	}

	if len(right) == 1 {
		n.right = invalidNode
		n.rightValue = right[0].value
	} else if n.right, err = buildNode(t, right, level+1); err != nil {
		return 0, err
	}

	return nodeIndex, nil
}

// Decode reads 1..maxLen bits MSB-first from br and returns the decoded
// symbol. The MSB bit is always the root branch: a 1 bit takes the left
// child, a 0 bit the right, matching bzip2's historical convention,
// which this package also applies to DEFLATE since bitstream.Reader
// abstracts away the underlying storage order (spec's "cross-format
// reuse of a common bit reader and Huffman table").
//
// A table with exactly one used symbol (§4.2's degenerate case) is
// built as a single root node whose left and right leaves both carry
// that symbol, so the general walk below still consumes exactly one
// bit and returns the sole symbol — matching DEFLATE's historical rule
// of always reading one bit even when it carries no information.
func (t *Table) Decode(br *bitstream.Reader) (uint16, error) {
	if t.unused {
		return 0, errs.New(codecName, errs.MalformedBlock, "symbol decoded from an empty alphabet")
	}
	nodeIndex := uint16(0)
	for {
		n := &t.nodes[nodeIndex]
		bit, err := br.ReadBit()
		if err != nil {
			return 0, errs.Wrap(codecName, errs.Truncated, "truncated Huffman code", err)
		}
		var next uint16
		var val uint16
		if bit {
			next, val = n.left, n.leftValue
		} else {
			next, val = n.right, n.rightValue
		}
		if next == invalidNode {
			return val, nil
		}
		nodeIndex = next
	}
}
