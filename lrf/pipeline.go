// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"crypto/cipher"

	"github.com/danjacques/golrf/support/ecb"
)

// Pipeline turns an encrypted, compressed response payload into plaintext.
//
// Pipeline holds no mutable state, and may be shared between goroutines.
type Pipeline struct {
	// Block is the payload cipher, from NewPayloadCipher. It must not be nil.
	Block cipher.Block

	// Compression is the compression applied to payloads.
	Compression Compression

	// MaxSize is the maximum size of a decompressed payload. If <= 0, output
	// size is unlimited.
	MaxSize int64
}

// Transform decrypts, unpads and decompresses data.
//
// The returned slice never aliases data.
func (p *Pipeline) Transform(data []byte) ([]byte, error) {
	padded, err := ecb.Decrypt(p.Block, data)
	if err != nil {
		return nil, classify(err, DecryptionError, "decrypting payload")
	}

	compressed, err := ecb.Unpad(padded, p.Block.BlockSize())
	if err != nil {
		return nil, classify(err, PaddingError, "decrypting payload")
	}

	out, err := decompress(p.Compression, compressed, p.MaxSize)
	if err != nil {
		return nil, &Error{Kind: DecompressionError, Offset: -1, Message: "decompressing payload", Err: err}
	}
	return out, nil
}
