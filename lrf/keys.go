// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"crypto/cipher"

	"github.com/danjacques/golrf/support/ecb"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blowfish"
)

// DeriveKey unwraps a container's payload key.
//
// The wrapped key is decrypted with Blowfish in ECB mode, keyed directly by
// the match ID's string bytes, and its PKCS#5 padding is removed.
//
// The returned key is sensitive. Callers should hand it to NewPayloadCipher,
// which clears it.
func DeriveKey(matchID MatchID, wrapped []byte) ([]byte, error) {
	kek, err := blowfish.NewCipher([]byte(matchID))
	if err != nil {
		return nil, &Error{Kind: DecryptionError, Offset: -1, Message: "creating key-wrapping cipher", Err: err}
	}

	padded, err := ecb.Decrypt(kek, wrapped)
	if err != nil {
		return nil, classify(err, DecryptionError, "unwrapping key")
	}

	key, err := ecb.Unpad(padded, kek.BlockSize())
	if err != nil {
		zero(padded)
		return nil, classify(err, PaddingError, "unwrapping key")
	}
	if len(key) == 0 {
		zero(padded)
		return nil, newError(DecryptionError, -1, "unwrapped key is empty")
	}
	return key, nil
}

// NewPayloadCipher constructs the cipher used to decrypt stream payloads from
// a key returned by DeriveKey.
//
// The key's bytes are zeroed once the cipher has been constructed, whether
// or not construction succeeds.
func NewPayloadCipher(key []byte) (cipher.Block, error) {
	defer zero(key)

	b, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, &Error{Kind: DecryptionError, Offset: -1, Message: "creating payload cipher",
			Err: errors.Wrapf(err, "key of %d byte(s)", len(key))}
	}
	return b, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
