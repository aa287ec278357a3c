// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"context"
	"io"

	"github.com/danjacques/golrf/support/cursor"
	"github.com/danjacques/golrf/support/ecb"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error classification", func() {
	DescribeTable("classifying underlying errors",
		func(err error, expected Kind) {
			Expect(KindOf(classify(err, DecompressionError, "testing"))).To(Equal(expected))
		},
		Entry("truncated cursor read", &cursor.TruncatedError{Offset: 3, Want: 4}, TruncatedInput),
		Entry("wrapped truncated read", errors.Wrap(&cursor.TruncatedError{}, "context"), TruncatedInput),
		Entry("bad padding", &ecb.PaddingError{Pad: 9, BlockSize: 8}, PaddingError),
		Entry("partial block", errors.Wrap(ecb.ErrBlockSize, "7 bytes"), DecryptionError),
		Entry("anything else", io.ErrClosedPipe, DecompressionError),
		Entry("already classified", &Error{Kind: SegmentMagicError}, SegmentMagicError),
	)

	It("leaves I/O failures unclassified when there is no fallback", func() {
		err := classify(errors.Wrap(io.ErrClosedPipe, "reading 8 byte(s) at offset 0"), KindNone, "reading header")
		Expect(KindOf(err)).To(Equal(KindNone))
		Expect(errors.Cause(err)).To(Equal(io.ErrClosedPipe))
		Expect(err.Error()).To(HavePrefix("reading header: "))

		err = classify(&cursor.TruncatedError{Offset: 4, Want: 8}, KindNone, "reading header")
		Expect(KindOf(err)).To(Equal(TruncatedInput))
	})

	It("returns KindNone for foreign errors", func() {
		Expect(KindOf(nil)).To(Equal(KindNone))
		Expect(KindOf(context.Canceled)).To(Equal(KindNone))
		Expect(IsKind(nil, KindNone)).To(BeFalse())
	})

	It("finds a Kind through wrapping", func() {
		err := errors.Wrap(&Error{Kind: UnknownPartKey, Offset: -1}, "decoding")
		Expect(KindOf(err)).To(Equal(UnknownPartKey))
		Expect(IsKind(err, UnknownPartKey)).To(BeTrue())
	})

	It("only considers unknown parts skippable", func() {
		for k := KindNone; k <= PayloadError; k++ {
			Expect(k.Skippable()).To(Equal(k == UnknownPartKey), "kind %s", k)
		}
	})

	It("describes the failure in its message", func() {
		err := &Error{
			Kind:     SegmentMagicError,
			Part:     "stream",
			Offset:   42,
			Expected: byte(0x0A),
			Actual:   byte(0x0B),
			Message:  "bad segment terminator",
		}
		Expect(err.Error()).To(Equal(
			`SegmentMagicError in part "stream" at offset 42: bad segment terminator (expected 0x0A, got 0x0B)`))
	})

	It("renders non-byte mismatches verbatim", func() {
		err := mismatch(UnsupportedVersion, 0, []uint32{1, 2}, uint32(10), "unsupported container version")
		Expect(err.Error()).To(Equal(
			"UnsupportedVersion at offset 0: unsupported container version (expected [1 2], got 10)"))
	})

	It("annotates the part only once", func() {
		err := error(&Error{Kind: TruncatedStream, Offset: -1})
		withPart(err, "inner")
		withPart(err, "outer")
		Expect(err.(*Error).Part).To(Equal("inner"))
	})

	It("names every kind", func() {
		Expect(PaddingError.String()).To(Equal("PaddingError"))
		Expect(Kind(99).String()).To(Equal("Kind(99)"))
	})
})
