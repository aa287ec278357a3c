// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

const (
	// DefaultMaxPayloadSize is the default limit on a single decompressed
	// payload (64MiB).
	DefaultMaxPayloadSize = 64 * 1024 * 1024
)

// DefaultVersions is the default set of recognized container versions.
var DefaultVersions = []uint32{1, 2}

// Config controls decoding.
//
// The zero value is a valid Config that uses defaults for every field. The
// struct tags allow a Config to be populated from the environment.
type Config struct {
	// Versions is the allow-list of container versions. If empty,
	// DefaultVersions is used.
	Versions []uint32 `env:"LRF_VERSIONS" envSeparator:","`

	// OffsetWidth is the width, in bits, of index entry offsets. It must be 32
	// or 64; any other value is treated as 64. Offsets that do not fit are
	// rejected as malformed metadata.
	OffsetWidth int `env:"LRF_OFFSET_WIDTH" envDefault:"64"`

	// Compression is the compression applied to stream payloads.
	Compression Compression `env:"LRF_COMPRESSION" envDefault:"GZIP"`

	// MaxPayloadSize is the maximum size of a single decompressed payload. If
	// <= 0, DefaultMaxPayloadSize is used.
	MaxPayloadSize int64 `env:"LRF_MAX_PAYLOAD_SIZE"`

	// SkipUnknownParts, if true, causes index entries with unrecognized keys to
	// be logged and skipped instead of failing the decode.
	SkipUnknownParts bool `env:"LRF_SKIP_UNKNOWN_PARTS"`
}

func (cfg *Config) versionAllowed(v uint32) bool {
	versions := cfg.Versions
	if len(versions) == 0 {
		versions = DefaultVersions
	}
	for _, allowed := range versions {
		if v == allowed {
			return true
		}
	}
	return false
}

func (cfg *Config) maxOffset() uint64 {
	if cfg.OffsetWidth == 32 {
		return 1<<32 - 1
	}
	return 1<<64 - 1
}

func (cfg *Config) maxPayloadSize() int64 {
	if cfg.MaxPayloadSize > 0 {
		return cfg.MaxPayloadSize
	}
	return DefaultMaxPayloadSize
}
