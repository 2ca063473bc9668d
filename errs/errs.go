// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs defines the structured error taxonomy shared by every codec
// in this module. Each codec reports failures as an *Error carrying one of
// the fixed Kind values below rather than an ad-hoc string or sentinel.
package errs

import "fmt"

// Kind classifies why a codec failed to decompress its input.
type Kind int

const (
	// InvalidArgument covers null/empty input, a zero-capacity output
	// buffer, or a size that is nonsensical on its face.
	InvalidArgument Kind = iota
	// UnsupportedFormat covers an unknown signature, an unknown LZFSE
	// block marker, a randomized bzip2 block, or a reserved DEFLATE
	// block type.
	UnsupportedFormat
	// Truncated covers an attempt to read past the end of the
	// compressed input, or past the end of a sub-buffer.
	Truncated
	// MalformedBlock covers a header field that violates its domain:
	// a Kraft sum that isn't 1, LEN+NLEN != 0xFFFF, a symbol or tree
	// index out of range, and similar.
	MalformedBlock
	// DistanceOutOfRange covers an LZ back-reference that would read
	// before the start of the output produced so far.
	DistanceOutOfRange
	// CapacityExceeded covers uncompressed data that would not fit in
	// the caller-supplied output buffer.
	CapacityExceeded
	// ChecksumMismatch covers a stored CRC-32 or Adler-32 that doesn't
	// match the value computed over the produced bytes.
	ChecksumMismatch
	// InternalLimit covers exceeding a fixed safety bound, such as a
	// bzip2 block larger than 900,000 bytes.
	InternalLimit
	// NotImplemented covers a codec, or a codec variant, that this
	// module deliberately does not implement (LZX, LZNT1, LZXPRESS).
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case UnsupportedFormat:
		return "unsupported format"
	case Truncated:
		return "truncated"
	case MalformedBlock:
		return "malformed block"
	case DistanceOutOfRange:
		return "distance out of range"
	case CapacityExceeded:
		return "capacity exceeded"
	case ChecksumMismatch:
		return "checksum mismatch"
	case InternalLimit:
		return "internal limit exceeded"
	case NotImplemented:
		return "not implemented"
	default:
		return "unknown error"
	}
}

// Error is the structured error value returned by every codec's
// Decompress entry point.
type Error struct {
	Kind  Kind
	Codec string // e.g. "deflate", "bzip2", "lzvn", "lzfse", "misc"
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Codec, e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Codec, e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Codec, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, errs.Sentinel(errs.Truncated)) style matching
// against a Kind, in addition to errors.As(err, &structErr).
func (e *Error) Is(target error) bool {
	if k, ok := target.(kindSentinel); ok {
		return e.Kind == k.kind
	}
	return false
}

type kindSentinel struct{ kind Kind }

func (k kindSentinel) Error() string { return k.kind.String() }

// Sentinel returns an error value suitable for errors.Is(err, Sentinel(k)).
func Sentinel(k Kind) error { return kindSentinel{kind: k} }

// New builds a structured error for the named codec.
func New(codec string, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Codec: codec, Msg: msg}
}

// Wrap builds a structured error that also carries an underlying cause.
func Wrap(codec string, kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Codec: codec, Msg: msg, Cause: cause}
}
