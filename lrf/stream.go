// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"context"

	"github.com/danjacques/golrf/support/cursor"
	"github.com/danjacques/golrf/support/fmtutil"
	"github.com/danjacques/golrf/support/logging"

	"github.com/pkg/errors"
)

const (
	// StreamTypeTag is the type tag of the only recognized stream type.
	StreamTypeTag byte = 0x4E
	// SegmentMagic terminates every segment.
	SegmentMagic byte = 0x0A

	// streamPrefixSize is the size of the type and declared size fields, which
	// DeclaredSize counts.
	streamPrefixSize = 5
	// segmentHeaderSize is the size of a segment's reserved and length fields.
	segmentHeaderSize = 8

	requestPreviewSize = 96
)

// StreamDecoder decodes a stream part into records.
//
// A StreamDecoder may be reused, but not concurrently.
type StreamDecoder struct {
	// Pipeline transforms responses whose requests match a Registry route. It
	// may be nil if Registry is nil.
	Pipeline *Pipeline

	// Registry selects the responses to transform and decode. If nil, every
	// response is stored raw.
	Registry *Registry

	// Part is the part's index key, used to annotate errors and logs.
	Part string

	// Logger is the logger instance to use. If nil, no logging will be
	// performed.
	Logger logging.L
}

// Decode reads a stream from cur, starting at its current position.
//
// The stream is decoded in a single sequential pass. c is checked before each
// record; if it is cancelled, Decode returns its error and no Stream.
func (sd *StreamDecoder) Decode(c context.Context, cur *cursor.C) (*Stream, error) {
	logger := logging.Must(sd.Logger)

	var s Stream
	if err := sd.readHeader(cur, &s.Header); err != nil {
		return nil, withPart(err, sd.Part)
	}

	// The stream ends DeclaredSize bytes after its type tag.
	streamEnd := cur.Position() + int64(s.Header.DeclaredSize) - streamPrefixSize - 4
	logger.Debugf("Stream %q: declared size %d, payload size %d.",
		sd.Part, s.Header.DeclaredSize, s.Header.PayloadSize)

	for cur.Position() < streamEnd {
		if err := c.Err(); err != nil {
			return nil, errors.Wrapf(err, "decoding part %q", sd.Part)
		}

		rec, err := sd.readRecord(cur, streamEnd, len(s.Records))
		if err != nil {
			return nil, withPart(err, sd.Part)
		}
		s.Records = append(s.Records, rec)
		decoderRecords.WithLabelValues(rec.Response.Kind().String()).Inc()
	}

	logger.Debugf("Stream %q: decoded %d record(s).", sd.Part, len(s.Records))
	return &s, nil
}

func (sd *StreamDecoder) readHeader(cur *cursor.C, hdr *StreamHeader) error {
	start := cur.Base() + cur.Position()

	var err error
	if hdr.Type, err = cur.ReadU8(); err != nil {
		return classify(err, KindNone, "reading stream type")
	}
	if hdr.Type != StreamTypeTag {
		return mismatch(UnsupportedStreamType, start,
			StreamTypeTag, hdr.Type, "unsupported stream type")
	}

	if hdr.DeclaredSize, err = cur.ReadU32LE(); err != nil {
		return classify(err, KindNone, "reading stream declared size")
	}
	if hdr.PayloadSize, err = cur.ReadU32LE(); err != nil {
		return classify(err, KindNone, "reading stream payload size")
	}

	// The payload size excludes the prefix and its own field.
	expected := int64(hdr.DeclaredSize) - streamPrefixSize - 4
	if expected < 0 || int64(hdr.PayloadSize) != expected {
		return mismatch(StreamSizeMismatch, start, expected, int64(hdr.PayloadSize),
			"payload size disagrees with declared size")
	}
	return nil
}

func (sd *StreamDecoder) readRecord(cur *cursor.C, streamEnd int64, index int) (Record, error) {
	req, _, err := readSegment(cur, streamEnd)
	if err != nil {
		return Record{}, err
	}
	resp, respOffset, err := readSegment(cur, streamEnd)
	if err != nil {
		return Record{}, err
	}
	rec := Record{Request: req, Response: resp}

	route := sd.Registry.Lookup(req.Payload)
	if route == nil {
		return rec, nil
	}

	logger := logging.Must(sd.Logger)
	logger.Debugf("Record #%d routed to %q: %s", index, route.Name,
		fmtutil.Preview{Data: req.Payload, Max: requestPreviewSize})

	if sd.Pipeline == nil {
		return Record{}, newError(DecryptionError, respOffset, "no payload cipher for %s response", route.Name)
	}
	plain, err := sd.Pipeline.Transform(resp.Payload)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Offset < 0 {
			e.Offset = respOffset
		}
		return Record{}, err
	}
	decoderPayloadBytes.Add(float64(len(plain)))

	decoded, err := route.Decoder.Decode(plain)
	if err != nil {
		return Record{}, &Error{Kind: PayloadError, Offset: respOffset,
			Message: "decoding " + route.Name + " payload", Err: err}
	}
	logger.Debugf("Record #%d: %s at timestamp %f.", index, decoded.Kind(), decoded.Timestamp())

	rec.Response = decoded
	return rec, nil
}

// readSegment reads a segment that must end at or before streamEnd. It
// returns the segment and the absolute offset of its payload.
func readSegment(cur *cursor.C, streamEnd int64) (Segment, int64, error) {
	start := cur.Position()
	if streamEnd-start < segmentHeaderSize {
		return Segment{}, -1, newError(TruncatedStream, cur.Base()+start,
			"segment header needs %d byte(s), %d remain in stream", segmentHeaderSize, streamEnd-start)
	}

	var (
		seg Segment
		err error
	)
	if seg.Reserved, err = cur.ReadU32LE(); err != nil {
		return Segment{}, -1, classify(err, KindNone, "reading segment header")
	}
	length, err := cur.ReadU32LE()
	if err != nil {
		return Segment{}, -1, classify(err, KindNone, "reading segment header")
	}

	// The payload and its terminator must fit in the stream.
	payloadOffset := cur.Position()
	if remaining := streamEnd - payloadOffset; int64(length)+1 > remaining {
		return Segment{}, -1, newError(TruncatedStream, cur.Base()+start,
			"segment of %d byte(s) overruns stream (%d byte(s) remain)", length, remaining)
	}

	if seg.Payload, err = cur.ReadExact(int(length)); err != nil {
		return Segment{}, -1, classify(err, KindNone, "reading segment payload")
	}

	magicOffset := cur.Position()
	magic, err := cur.ReadU8()
	if err != nil {
		return Segment{}, -1, classify(err, KindNone, "reading segment terminator")
	}
	if magic != SegmentMagic {
		return Segment{}, -1, mismatch(SegmentMagicError, cur.Base()+magicOffset,
			SegmentMagic, magic, "bad segment terminator")
	}
	return seg, cur.Base() + payloadOffset, nil
}
