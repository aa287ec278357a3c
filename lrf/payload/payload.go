// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package payload decodes the decrypted, decompressed bodies of replay stream
// responses into typed records.
//
// Two record kinds are understood: game data chunks and keyframes. Each starts
// with a fixed-size little-endian header containing the record's timestamp.
// The remainder of the payload is kept as an opaque Body.
package payload

import (
	"bytes"
	"fmt"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Kind identifies the variant of a stream record's response.
type Kind int

const (
	// KindRaw is a response that was stored without decoding.
	KindRaw Kind = iota
	// KindChunk is a decoded game data chunk.
	KindChunk
	// KindKeyframe is a decoded keyframe.
	KindKeyframe
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "RAW"
	case KindChunk:
		return "CHUNK"
	case KindKeyframe:
		return "KEYFRAME"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// Record is a decoded payload.
type Record interface {
	// Kind returns the record's variant.
	Kind() Kind
	// Timestamp returns the record's timestamp, in seconds of game time.
	Timestamp() float32
}

// Decoder decodes a payload into a Record.
//
// The data passed to Decode is fully decrypted and decompressed, and is owned
// by the Decoder once passed.
type Decoder interface {
	Decode(data []byte) (Record, error)
}

// DecoderFunc is a function that implements Decoder.
type DecoderFunc func(data []byte) (Record, error)

// Decode implements Decoder.
func (fn DecoderFunc) Decode(data []byte) (Record, error) { return fn(data) }

// ErrShortPayload is returned when a payload is smaller than its header.
var ErrShortPayload = errors.New("payload is shorter than its header")

func unpackHeader(data []byte, size int, hdr interface{}) error {
	if len(data) < size {
		return errors.Wrapf(ErrShortPayload, "have %d byte(s), need %d", len(data), size)
	}
	if err := struc.Unpack(bytes.NewReader(data[:size]), hdr); err != nil {
		return errors.Wrap(err, "unpacking header")
	}
	return nil
}
