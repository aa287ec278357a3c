// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package lrftest synthesizes replay containers for tests.
//
// The lrf package only decodes containers. lrftest produces them, one layer
// at a time, so that tests can corrupt any individual field.
package lrftest

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"math"

	"github.com/danjacques/golrf/support/ecb"

	"github.com/golang/snappy"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blowfish"
)

const (
	// StreamType is the recognized stream type tag.
	StreamType byte = 0x4E
	// Magic is the segment terminator.
	Magic byte = 0x0A
)

func mustCipher(key []byte) *blowfish.Cipher {
	b, err := blowfish.NewCipher(key)
	if err != nil {
		panic(err)
	}
	return b
}

// Encrypt pads data and encrypts it with Blowfish in ECB mode.
func Encrypt(key, data []byte) []byte { return ecb.Encrypt(mustCipher(key), data) }

// WrapKey wraps a payload key under a match ID.
func WrapKey(matchID string, key []byte) []byte { return Encrypt([]byte(matchID), key) }

// Gzip compresses data with gzip.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		panic(err)
	}
	if err := gw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Snappy compresses data with Snappy's framed format.
func Snappy(data []byte) []byte {
	var buf bytes.Buffer
	sw := snappy.NewBufferedWriter(&buf)
	if _, err := sw.Write(data); err != nil {
		panic(err)
	}
	if err := sw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Payload gzips and encrypts plain, as a container stores a response.
func Payload(key, plain []byte) []byte { return Encrypt(key, Gzip(plain)) }

func f32(v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

// ChunkData builds a plaintext game data chunk.
func ChunkData(typ byte, ts float32, body []byte) []byte {
	return bytes.Join([][]byte{{typ}, f32(ts), body}, nil)
}

// KeyframeData builds a plaintext keyframe.
func KeyframeData(ts float32, body []byte) []byte {
	return bytes.Join([][]byte{{0x01}, f32(ts), make([]byte, 11), body}, nil)
}

// Segment is a stream segment.
type Segment struct {
	Reserved uint32
	Payload  []byte
}

// Pair returns a request segment and its response segment.
func Pair(request string, response []byte) []Segment {
	return []Segment{
		{Payload: []byte(request)},
		{Payload: response},
	}
}

// Stream is a stream part.
type Stream struct {
	Segments []Segment
}

// Bytes returns the encoded stream.
func (s *Stream) Bytes() []byte {
	var body bytes.Buffer
	for _, seg := range s.Segments {
		var hdr [8]byte
		binary.LittleEndian.PutUint32(hdr[0:], seg.Reserved)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(seg.Payload)))
		body.Write(hdr[:])
		body.Write(seg.Payload)
		body.WriteByte(Magic)
	}

	var hdr [9]byte
	hdr[0] = StreamType
	binary.LittleEndian.PutUint32(hdr[1:], uint32(body.Len()+9))
	binary.LittleEndian.PutUint32(hdr[5:], uint32(body.Len()))
	return append(hdr[:], body.Bytes()...)
}

// DeclaredSizeOffset is the offset of a stream's declared size field.
const DeclaredSizeOffset = 1

// PayloadSizeOffset is the offset of a stream's payload size field.
const PayloadSizeOffset = 5

// TerminatorOffset returns the offset of segment i's terminator within the
// encoded stream.
func (s *Stream) TerminatorOffset(i int) int {
	off := 9
	for j, seg := range s.Segments {
		off += 8 + len(seg.Payload)
		if j == i {
			return off
		}
		off++
	}
	panic("segment index out of range")
}

// Part is an indexed part of a container.
type Part struct {
	Key  string
	Data []byte
}

// Container describes a replay container.
type Container struct {
	Version uint32

	// MatchID is encoded as given; use a string or an integer.
	MatchID interface{}
	// Key is the raw payload key. It is wrapped under MatchID.
	Key []byte

	Parts []Part

	// Omit lists metadata fields to leave out.
	Omit []string
}

// Built is an encoded container.
type Built struct {
	Data []byte

	// DataOffset is the offset of the data section.
	DataOffset int
	// PartOffsets is the absolute offset of each part.
	PartOffsets []int
}

// Metadata returns the container's JSON metadata.
func (c *Container) Metadata() []byte {
	type value struct {
		Offset uint64 `json:"offset"`
		Size   uint32 `json:"size"`
	}
	type entry struct {
		Key   string `json:"Key"`
		Value value  `json:"Value"`
	}

	index := make([]entry, len(c.Parts))
	var off uint64
	for i, p := range c.Parts {
		index[i] = entry{Key: p.Key, Value: value{Offset: off, Size: uint32(len(p.Data))}}
		off += uint64(len(p.Data))
	}

	md := map[string]interface{}{
		"matchID":       c.MatchID,
		"encryptionKey": base64.StdEncoding.EncodeToString(WrapKey(matchIDString(c.MatchID), c.Key)),
		"dataIndex":     index,
		"gameLength":    1234,
	}
	for _, k := range c.Omit {
		delete(md, k)
	}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(md)
	if err != nil {
		panic(err)
	}
	return data
}

// Build encodes the container.
func (c *Container) Build() *Built {
	return c.BuildWithMetadata(c.Metadata())
}

// BuildWithMetadata encodes the container with a custom metadata blob.
func (c *Container) BuildWithMetadata(md []byte) *Built {
	var buf bytes.Buffer
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], c.Version)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(md)))
	buf.Write(hdr[:])
	buf.Write(md)

	b := Built{DataOffset: buf.Len()}
	for _, p := range c.Parts {
		b.PartOffsets = append(b.PartOffsets, buf.Len())
		buf.Write(p.Data)
	}
	b.Data = buf.Bytes()
	return &b
}

func matchIDString(v interface{}) string {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		panic(err)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return string(data)
}
