// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package payload

// ChunkHeaderSize is the size of a ChunkHeader, in bytes.
const ChunkHeaderSize = 5

// ChunkHeader is the fixed header at the start of every game data chunk.
//
//	uint8_t type;       // observed as 0x03 or 0x04
//	float   timestamp;
type ChunkHeader struct {
	Type      uint8
	Timestamp float32 `struc:"float32,little"`
}

// Chunk is a decoded game data chunk.
type Chunk struct {
	Header ChunkHeader

	// Body is the chunk data following the header.
	Body []byte
}

var _ Record = (*Chunk)(nil)

// Kind implements Record.
func (*Chunk) Kind() Kind { return KindChunk }

// Timestamp implements Record.
func (c *Chunk) Timestamp() float32 { return c.Header.Timestamp }

// DecodeChunk decodes a game data chunk payload.
func DecodeChunk(data []byte) (Record, error) {
	var c Chunk
	if err := unpackHeader(data, ChunkHeaderSize, &c.Header); err != nil {
		return nil, err
	}
	c.Body = data[ChunkHeaderSize:]
	return &c, nil
}
