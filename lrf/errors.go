// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"bytes"
	"fmt"

	"github.com/danjacques/golrf/support/cursor"
	"github.com/danjacques/golrf/support/ecb"
	"github.com/danjacques/golrf/support/fmtutil"

	"github.com/pkg/errors"
)

// Kind classifies a decode failure.
type Kind int

const (
	// KindNone is returned by KindOf for errors that did not originate from
	// the decoder, such as context cancellation.
	KindNone Kind = iota

	// TruncatedInput means fewer bytes were available than a read required.
	TruncatedInput
	// UnsupportedVersion means the container version is not recognized.
	UnsupportedVersion
	// MalformedMetadata means the metadata blob could not be parsed or lacked
	// a required field.
	MalformedMetadata
	// UnknownPartKey means an index entry names a part with no decoder.
	UnknownPartKey
	// UnsupportedStreamType means a stream's type tag is not recognized.
	UnsupportedStreamType
	// StreamSizeMismatch means a stream's declared and payload sizes disagree.
	StreamSizeMismatch
	// TruncatedStream means a segment extends past the end of its stream, or
	// the stream ended between a request and its response.
	TruncatedStream
	// SegmentMagicError means a segment terminator byte was wrong.
	SegmentMagicError
	// PaddingError means a decrypted blob had an invalid padding trailer.
	PaddingError
	// DecryptionError means a blob could not be decrypted, usually because it
	// was not a whole number of cipher blocks.
	DecryptionError
	// DecompressionError means a decrypted payload failed decompression.
	DecompressionError
	// PayloadError means a payload decoder rejected a decompressed payload.
	PayloadError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case TruncatedInput:
		return "TruncatedInput"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case MalformedMetadata:
		return "MalformedMetadata"
	case UnknownPartKey:
		return "UnknownPartKey"
	case UnsupportedStreamType:
		return "UnsupportedStreamType"
	case StreamSizeMismatch:
		return "StreamSizeMismatch"
	case TruncatedStream:
		return "TruncatedStream"
	case SegmentMagicError:
		return "SegmentMagicError"
	case PaddingError:
		return "PaddingError"
	case DecryptionError:
		return "DecryptionError"
	case DecompressionError:
		return "DecompressionError"
	case PayloadError:
		return "PayloadError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Skippable returns true if a failure of this kind is confined to a single
// index entry, so that an integrator may skip that entry and continue.
//
// All other kinds indicate corruption.
func (k Kind) Skippable() bool { return k == UnknownPartKey }

// Error is a classified decode failure.
type Error struct {
	// Kind is the failure's classification.
	Kind Kind

	// Part is the index key of the part being decoded, if any.
	Part string
	// Offset is the absolute source offset associated with the failure, or -1
	// if there is none.
	Offset int64

	// Expected and Actual, if not nil, describe a mismatched value. Tags and
	// magic bytes are stored as byte values.
	Expected interface{}
	Actual   interface{}

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var buf bytes.Buffer
	buf.WriteString(e.Kind.String())
	if e.Part != "" {
		fmt.Fprintf(&buf, " in part %q", e.Part)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&buf, " at offset %d", e.Offset)
	}
	if e.Message != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Message)
	}
	if e.Expected != nil || e.Actual != nil {
		fmt.Fprintf(&buf, " (expected %v, got %v)", displayValue(e.Expected), displayValue(e.Actual))
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// displayValue renders byte values in hex.
func displayValue(v interface{}) interface{} {
	if b, ok := v.(byte); ok {
		return fmtutil.HexByte(b)
	}
	return v
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindNone if err is not (and does not
// wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// IsKind returns true if err is classified as k.
func IsKind(err error, k Kind) bool { return err != nil && KindOf(err) == k }

func newError(k Kind, offset int64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    k,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

func mismatch(k Kind, offset int64, expected, actual interface{}, msg string) *Error {
	return &Error{
		Kind:     k,
		Offset:   offset,
		Expected: expected,
		Actual:   actual,
		Message:  msg,
	}
}

// classify wraps err as an *Error. Errors that are already classified are
// returned as-is, so the innermost classification wins.
//
// Cursor truncation is always TruncatedInput. Other errors take fallback; if
// fallback is KindNone they are wrapped, not classified, so that source I/O
// failures are not mistaken for corrupt input.
func classify(err error, fallback Kind, msg string) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var te *cursor.TruncatedError
	if errors.As(err, &te) {
		return &Error{Kind: TruncatedInput, Offset: te.Offset, Message: msg, Err: err}
	}

	var pe *ecb.PaddingError
	if errors.As(err, &pe) {
		return &Error{Kind: PaddingError, Offset: -1, Message: msg, Err: err}
	}
	if errors.Cause(err) == ecb.ErrBlockSize {
		return &Error{Kind: DecryptionError, Offset: -1, Message: msg, Err: err}
	}

	if fallback == KindNone {
		return errors.Wrap(err, msg)
	}
	return &Error{Kind: fallback, Offset: -1, Message: msg, Err: err}
}

// withPart annotates an *Error with the part it occurred in.
func withPart(err error, part string) error {
	var e *Error
	if errors.As(err, &e) && e.Part == "" {
		e.Part = part
	}
	return err
}
