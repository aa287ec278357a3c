// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package ecb implements electronic-codebook block modes and PKCS#5/PKCS#7
// padding removal.
//
// ECB encrypts every block independently. It is only appropriate for formats
// that mandate it; this package exists to read such formats.
package ecb

import (
	"crypto/cipher"
	"fmt"

	"github.com/pkg/errors"
)

// ErrBlockSize is returned when input is empty or not a multiple of the
// cipher's block size.
var ErrBlockSize = errors.New("input is not a positive multiple of the block size")

// PaddingError describes an invalid padding trailer.
type PaddingError struct {
	// Pad is the observed padding byte.
	Pad byte
	// BlockSize is the block size the padding was checked against.
	BlockSize int
	// Len is the length of the padded input.
	Len int
}

func (e *PaddingError) Error() string {
	return fmt.Sprintf("invalid padding byte 0x%02X (block size %d, input length %d)", e.Pad, e.BlockSize, e.Len)
}

type ecb struct {
	b         cipher.Block
	blockSize int
}

type decrypter ecb

// NewDecrypter returns a cipher.BlockMode which decrypts in ECB mode using b.
func NewDecrypter(b cipher.Block) cipher.BlockMode {
	return &decrypter{b: b, blockSize: b.BlockSize()}
}

func (d *decrypter) BlockSize() int { return d.blockSize }

func (d *decrypter) CryptBlocks(dst, src []byte) {
	if len(src)%d.blockSize != 0 {
		panic("ecb: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("ecb: output smaller than input")
	}
	for len(src) > 0 {
		d.b.Decrypt(dst[:d.blockSize], src[:d.blockSize])
		src, dst = src[d.blockSize:], dst[d.blockSize:]
	}
}

type encrypter ecb

// NewEncrypter returns a cipher.BlockMode which encrypts in ECB mode using b.
func NewEncrypter(b cipher.Block) cipher.BlockMode {
	return &encrypter{b: b, blockSize: b.BlockSize()}
}

func (e *encrypter) BlockSize() int { return e.blockSize }

func (e *encrypter) CryptBlocks(dst, src []byte) {
	if len(src)%e.blockSize != 0 {
		panic("ecb: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("ecb: output smaller than input")
	}
	for len(src) > 0 {
		e.b.Encrypt(dst[:e.blockSize], src[:e.blockSize])
		src, dst = src[e.blockSize:], dst[e.blockSize:]
	}
}

// Decrypt decrypts src with b in ECB mode into a new slice.
//
// If src is empty or not a multiple of the block size, ErrBlockSize is
// returned.
func Decrypt(b cipher.Block, src []byte) ([]byte, error) {
	bs := b.BlockSize()
	if len(src) == 0 || len(src)%bs != 0 {
		return nil, errors.Wrapf(ErrBlockSize, "%d byte(s), block size %d", len(src), bs)
	}
	dst := make([]byte, len(src))
	NewDecrypter(b).CryptBlocks(dst, src)
	return dst, nil
}

// Unpad removes a PKCS#5/PKCS#7 padding trailer from p.
//
// The last byte of p is the padding length. It must be non-zero, no larger
// than blockSize, and no larger than len(p). Only the trailer length is
// validated; the values of the other padding bytes are not inspected.
//
// The returned slice aliases p.
func Unpad(p []byte, blockSize int) ([]byte, error) {
	if len(p) == 0 {
		return nil, &PaddingError{BlockSize: blockSize}
	}
	pad := p[len(p)-1]
	if pad == 0 || int(pad) > blockSize || int(pad) > len(p) {
		return nil, &PaddingError{Pad: pad, BlockSize: blockSize, Len: len(p)}
	}
	return p[:len(p)-int(pad)], nil
}

// Pad appends a PKCS#5/PKCS#7 padding trailer to p, returning a new slice
// whose length is a multiple of blockSize.
func Pad(p []byte, blockSize int) []byte {
	pad := blockSize - (len(p) % blockSize)
	out := make([]byte, len(p), len(p)+pad)
	copy(out, p)
	for i := 0; i < pad; i++ {
		out = append(out, byte(pad))
	}
	return out
}

// Encrypt pads src and encrypts it with b in ECB mode.
func Encrypt(b cipher.Block, src []byte) []byte {
	padded := Pad(src, b.BlockSize())
	NewEncrypter(b).CryptBlocks(padded, padded)
	return padded
}
