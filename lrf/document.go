// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"sort"

	"github.com/danjacques/golrf/lrf/payload"
)

// Segment is a single framed unit of a stream.
type Segment struct {
	// Reserved is an opaque header field.
	Reserved uint32
	// Payload is the segment's data. It is owned by the Segment.
	Payload []byte
}

// Kind implements Response. A Segment stored as a response is raw.
func (Segment) Kind() payload.Kind { return payload.KindRaw }

// Response is a record's response. It is either a raw Segment, or a
// payload.Record decoded from one.
type Response interface {
	Kind() payload.Kind
}

var (
	_ Response = Segment{}
	_ Response = payload.Record(nil)
)

// Record is a request and its response.
type Record struct {
	Request  Segment
	Response Response
}

// Decoded returns the record's decoded payload, or nil if the response is
// raw.
func (r *Record) Decoded() payload.Record {
	if pr, ok := r.Response.(payload.Record); ok {
		return pr
	}
	return nil
}

// StreamHeader is the header at the start of a stream part.
type StreamHeader struct {
	// Type is the stream type tag.
	Type uint8
	// DeclaredSize is the size of the stream, including the Type and
	// DeclaredSize fields.
	DeclaredSize uint32
	// PayloadSize is the size of the stream's segments.
	PayloadSize uint32
}

// Stream is a decoded stream part.
type Stream struct {
	Header  StreamHeader
	Records []Record
}

// Count returns the number of records with a response of kind k.
func (s *Stream) Count(k payload.Kind) int {
	count := 0
	for i := range s.Records {
		if s.Records[i].Response.Kind() == k {
			count++
		}
	}
	return count
}

// Timestamps returns the timestamps of the stream's decoded records, in
// stream order.
func (s *Stream) Timestamps() []float32 {
	var ts []float32
	for i := range s.Records {
		if pr := s.Records[i].Decoded(); pr != nil {
			ts = append(ts, pr.Timestamp())
		}
	}
	return ts
}

// Document is a fully-decoded replay container.
//
// A Document is constructed once per decode and is not modified afterwards.
type Document struct {
	// Version is the container format version.
	Version uint32
	// Metadata is the container's interpreted metadata.
	Metadata Metadata
	// Parts maps each decoded part's index key to its Stream.
	Parts map[string]*Stream
}

// PartKeys returns the keys of the document's parts, sorted.
func (d *Document) PartKeys() []string {
	keys := make([]string, 0, len(d.Parts))
	for k := range d.Parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
