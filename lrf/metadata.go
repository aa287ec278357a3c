// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"bytes"
	"encoding/base64"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StreamPartKey is the index key of the only recognized part type.
const StreamPartKey = "stream"

// MatchID is a match identifier. In metadata it may be either a JSON string
// or a JSON integer; either way, it is held as its decimal string form.
type MatchID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *MatchID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MatchID(s)
		return nil
	}

	// Integers are used verbatim; anything else (floats, objects, null) is
	// rejected.
	v := string(data)
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		if _, uerr := strconv.ParseUint(v, 10, 64); uerr != nil {
			return errors.Errorf("matchID %s is neither a string nor an integer", v)
		}
	}
	*id = MatchID(v)
	return nil
}

// IndexEntry locates a part within the container's data section.
type IndexEntry struct {
	// Key is the part's type key.
	Key string
	// Offset is the part's offset, relative to the start of the data section.
	Offset uint64
	// Size is the part's size, in bytes.
	Size uint32
}

// Metadata is the subset of the container's JSON metadata that the decoder
// interprets.
type Metadata struct {
	// MatchID identifies the match. It is also the key-wrapping key.
	MatchID MatchID
	// WrappedKey is the base64-decoded encryption key, still wrapped.
	WrappedKey []byte
	// Index lists the container's parts, in metadata order.
	Index []IndexEntry

	// Raw is the complete metadata blob, for callers that want fields this
	// package does not interpret.
	Raw []byte
}

type metadataJSON struct {
	MatchID       *MatchID `json:"matchID"`
	EncryptionKey *string  `json:"encryptionKey"`
	DataIndex     *[]struct {
		Key   *string `json:"Key"`
		Value *struct {
			Offset *uint64 `json:"offset"`
			Size   *uint64 `json:"size"`
		} `json:"Value"`
	} `json:"dataIndex"`
}

// parseMetadata parses a metadata blob. offset is the blob's source offset,
// used for error reporting.
func parseMetadata(data []byte, offset int64, cfg *Config) (*Metadata, error) {
	var mj metadataJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return nil, &Error{Kind: MalformedMetadata, Offset: offset, Message: "parsing JSON", Err: err}
	}

	switch {
	case mj.MatchID == nil:
		return nil, newError(MalformedMetadata, offset, "missing required field %q", "matchID")
	case mj.EncryptionKey == nil:
		return nil, newError(MalformedMetadata, offset, "missing required field %q", "encryptionKey")
	case mj.DataIndex == nil:
		return nil, newError(MalformedMetadata, offset, "missing required field %q", "dataIndex")
	case *mj.MatchID == "":
		return nil, newError(MalformedMetadata, offset, "empty matchID")
	}

	wrapped, err := base64.StdEncoding.DecodeString(*mj.EncryptionKey)
	if err != nil {
		return nil, &Error{Kind: MalformedMetadata, Offset: offset, Message: "decoding encryptionKey", Err: err}
	}

	md := Metadata{
		MatchID:    *mj.MatchID,
		WrappedKey: wrapped,
		Index:      make([]IndexEntry, 0, len(*mj.DataIndex)),
		Raw:        data,
	}
	seen := make(map[string]struct{}, len(*mj.DataIndex))
	for i, ent := range *mj.DataIndex {
		if ent.Key == nil || ent.Value == nil || ent.Value.Offset == nil || ent.Value.Size == nil {
			return nil, newError(MalformedMetadata, offset, "dataIndex[%d] is incomplete", i)
		}
		if _, ok := seen[*ent.Key]; ok {
			return nil, newError(MalformedMetadata, offset, "dataIndex[%d] duplicates key %q", i, *ent.Key)
		}
		seen[*ent.Key] = struct{}{}

		if *ent.Value.Offset > cfg.maxOffset() {
			return nil, newError(MalformedMetadata, offset, "dataIndex[%d] offset %d exceeds %d-bit width",
				i, *ent.Value.Offset, cfg.OffsetWidth)
		}
		if *ent.Value.Size > 1<<32-1 {
			return nil, newError(MalformedMetadata, offset, "dataIndex[%d] size %d exceeds 32 bits",
				i, *ent.Value.Size)
		}

		md.Index = append(md.Index, IndexEntry{
			Key:    *ent.Key,
			Offset: *ent.Value.Offset,
			Size:   uint32(*ent.Value.Size),
		})
	}
	return &md, nil
}
