// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bzip2

// mtfDecoder implements the inverse move-to-front transform: Decode(i)
// returns the value currently at position i in the maintained order and
// then moves it to the front, exactly as bzip2's MTF decoding requires
// for both the symbol stack and the tree-selector index stream.
type mtfDecoder struct {
	order []byte
}

// newMTFDecoder seeds the order with the given symbol stack, front to
// back.
func newMTFDecoder(symbols []byte) *mtfDecoder {
	order := make([]byte, len(symbols))
	copy(order, symbols)
	return &mtfDecoder{order: order}
}

// newMTFDecoderWithRange seeds the order with {0,1,...,n-1}, used to
// invert the tree-selector MTF stream.
func newMTFDecoderWithRange(n int) *mtfDecoder {
	order := make([]byte, n)
	for i := range order {
		order[i] = byte(i)
	}
	return &mtfDecoder{order: order}
}

// First returns the value currently at the front of the order without
// modifying it.
func (m *mtfDecoder) First() byte {
	return m.order[0]
}

// Decode returns the value at position i and moves it to the front.
func (m *mtfDecoder) Decode(i int) byte {
	v := m.order[i]
	copy(m.order[1:i+1], m.order[:i])
	m.order[0] = v
	return v
}
