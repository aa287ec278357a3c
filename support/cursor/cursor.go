// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package cursor offers C, a bounds-checked sequential reader over a sized
// io.ReaderAt.
//
// C never trusts a length it has not checked: every read first verifies that
// the requested number of bytes fits within the source, so a corrupt length
// field fails with a TruncatedError instead of causing a huge allocation.
//
// Seeking is lazy. SeekTo only records the new position; if that position is
// beyond the end of the source, the next read fails. This mirrors a
// stream-oriented source where the seek itself cannot be validated.
//
// Every slice returned by C is a fresh copy, owned by the caller.
package cursor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// TruncatedError is returned when a read requests more bytes than remain.
type TruncatedError struct {
	// Offset is the absolute position at which the read was attempted.
	Offset int64
	// Want is the number of bytes requested.
	Want int64
	// Have is the number of bytes that were available.
	Have int64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: want %d byte(s), have %d", e.Offset, e.Want, e.Have)
}

// C is a cursor over a fixed-size source.
//
// C is not safe for concurrent use. Independent cursors over the same
// io.ReaderAt may be used concurrently if the io.ReaderAt permits it, as
// *os.File and *bytes.Reader do.
type C struct {
	src io.ReaderAt

	// base is the absolute offset of this cursor's origin within src.
	base int64
	// size is the declared size of the cursor's view.
	size int64
	// avail is the number of bytes of the view that actually exist in src. It
	// is never larger than size.
	avail int64
	// pos is the position relative to base.
	pos int64

	scratch [8]byte
}

// New returns a cursor over the first size bytes of src.
func New(src io.ReaderAt, size int64) *C {
	if size < 0 {
		size = 0
	}
	return &C{src: src, size: size, avail: size}
}

// FromBytes returns a cursor over an in-memory buffer.
func FromBytes(b []byte) *C { return New(bytes.NewReader(b), int64(len(b))) }

// Position returns the cursor's current position, relative to its origin.
func (c *C) Position() int64 { return c.pos }

// Len returns the declared size of the cursor's view.
func (c *C) Len() int64 { return c.size }

// Base returns the absolute source offset of this cursor's origin. It is
// non-zero for cursors produced by Section.
func (c *C) Base() int64 { return c.base }

// Remaining returns the number of readable bytes after the current position.
// If the cursor has been seeked past its end, Remaining is 0.
func (c *C) Remaining() int64 {
	if c.pos >= c.avail {
		return 0
	}
	return c.avail - c.pos
}

// SeekTo moves the cursor to a position relative to its origin.
//
// Seeking past the end is allowed; the next read will fail.
func (c *C) SeekTo(pos int64) error {
	if pos < 0 {
		return errors.Errorf("seek to negative offset %d", pos)
	}
	c.pos = pos
	return nil
}

// Section returns an independent cursor over n bytes starting at off, where
// off is relative to c's origin. The returned cursor's positions are relative
// to off.
//
// Like SeekTo, Section does not validate that the range exists; reads that fall
// outside of c's readable bytes fail with a TruncatedError.
func (c *C) Section(off, n int64) (*C, error) {
	if off < 0 || n < 0 {
		return nil, errors.Errorf("invalid section [%d, +%d)", off, n)
	}

	avail := c.avail - off
	switch {
	case avail < 0:
		avail = 0
	case avail > n:
		avail = n
	}
	return &C{
		src:   c.src,
		base:  c.base + off,
		size:  n,
		avail: avail,
	}, nil
}

// check verifies that n bytes can be read at the current position.
func (c *C) check(n int64) error {
	if n < 0 {
		return errors.Errorf("invalid read size %d", n)
	}
	if have := c.Remaining(); n > have {
		return &TruncatedError{Offset: c.base + c.pos, Want: n, Have: have}
	}
	return nil
}

func (c *C) readInto(buf []byte) error {
	off := c.base + c.pos
	amt, err := c.src.ReadAt(buf, off)
	if amt == len(buf) {
		c.pos += int64(amt)
		return nil
	}
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return &TruncatedError{Offset: off, Want: int64(len(buf)), Have: int64(amt)}
	}
	return errors.Wrapf(err, "reading %d byte(s) at offset %d", len(buf), off)
}

// ReadExact reads exactly n bytes, returning them in a newly-allocated slice.
func (c *C) ReadExact(n int) ([]byte, error) {
	if err := c.check(int64(n)); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := c.readInto(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadU8 reads a single byte.
func (c *C) ReadU8() (byte, error) {
	if err := c.check(1); err != nil {
		return 0, err
	}
	if err := c.readInto(c.scratch[:1]); err != nil {
		return 0, err
	}
	return c.scratch[0], nil
}

// ReadU32LE reads a little-endian uint32.
func (c *C) ReadU32LE() (uint32, error) {
	if err := c.check(4); err != nil {
		return 0, err
	}
	if err := c.readInto(c.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.scratch[:4]), nil
}

// ReadU64LE reads a little-endian uint64.
func (c *C) ReadU64LE() (uint64, error) {
	if err := c.check(8); err != nil {
		return 0, err
	}
	if err := c.readInto(c.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(c.scratch[:8]), nil
}

// Reader returns an io.Reader over the next n bytes, advancing the cursor past
// them. It is used to hand fixed-size headers to struct unpackers.
func (c *C) Reader(n int) (io.Reader, error) {
	buf, err := c.ReadExact(n)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}
