// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package payload

// KeyframeHeaderSize is the size of a KeyframeHeader, in bytes.
const KeyframeHeaderSize = 16

// KeyframeHeader is the fixed header at the start of every keyframe.
type KeyframeHeader struct {
	Type      uint8
	Timestamp float32 `struc:"float32,little"`
	Reserved  [11]byte
}

// Keyframe is a decoded keyframe.
type Keyframe struct {
	Header KeyframeHeader

	// Body is the keyframe data following the header.
	Body []byte
}

var _ Record = (*Keyframe)(nil)

// Kind implements Record.
func (*Keyframe) Kind() Kind { return KindKeyframe }

// Timestamp implements Record.
func (k *Keyframe) Timestamp() float32 { return k.Header.Timestamp }

// DecodeKeyframe decodes a keyframe payload.
func DecodeKeyframe(data []byte) (Record, error) {
	var k Keyframe
	if err := unpackHeader(data, KeyframeHeaderSize, &k.Header); err != nil {
		return nil, err
	}
	k.Body = data[KeyframeHeaderSize:]
	return &k, nil
}
