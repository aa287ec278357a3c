// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	"github.com/danjacques/golrf/support/bufferpool"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Compression is the compression applied to stream payloads after
// decryption.
type Compression int

const (
	// CompressionGzip is gzip, the compression used by replay containers.
	CompressionGzip Compression = iota
	// CompressionSnappy is Snappy's framed stream format.
	CompressionSnappy
	// CompressionNone passes decrypted payloads through unmodified.
	CompressionNone
)

var compressionNames = map[Compression]string{
	CompressionGzip:   "GZIP",
	CompressionSnappy: "SNAPPY",
	CompressionNone:   "NONE",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseCompression parses a Compression from its name. Parsing is
// case-insensitive.
func ParseCompression(v string) (Compression, error) {
	for c, name := range compressionNames {
		if strings.EqualFold(v, name) {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown compression: %q", v)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(text []byte) error {
	v, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// decompressBuffers holds decompression output. Buffers that grew past 1MiB
// are not retained.
var decompressBuffers = bufferpool.Pool{Size: 32 * 1024, MaxRetained: 1024 * 1024}

// decompress decompresses data, reading at most limit bytes of output. If
// limit is <= 0, output size is not limited.
func decompress(comp Compression, data []byte, limit int64) ([]byte, error) {
	var r io.Reader
	switch comp {
	case CompressionGzip:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "creating gzip reader")
		}
		defer gz.Close()
		r = gz

	case CompressionSnappy:
		r = snappy.NewReader(bytes.NewReader(data))

	case CompressionNone:
		return data, nil

	default:
		return nil, errors.Errorf("unknown compression: %s", comp)
	}

	if limit > 0 {
		// Read one byte past the limit so we can tell an exact fit from an
		// overflow.
		r = io.LimitReader(r, limit+1)
	}
	buf := decompressBuffers.Get()
	defer buf.Release()

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrapf(err, "decompressing %s payload", comp)
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, errors.Errorf("decompressed payload exceeds %d byte(s)", limit)
	}
	return buf.Detach(), nil
}
