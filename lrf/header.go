// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"github.com/danjacques/golrf/support/cursor"

	"github.com/lunixbochs/struc"
)

// ContainerHeaderSize is the size of a ContainerHeader, in bytes.
const ContainerHeaderSize = 8

// ContainerHeader is the fixed header at the start of every replay container.
//
//	uint32_t version;
//	uint32_t metadata_size;  // size of the JSON blob that follows
type ContainerHeader struct {
	Version      uint32 `struc:",little"`
	MetadataSize uint32 `struc:",little"`
}

func readContainerHeader(cur *cursor.C) (*ContainerHeader, error) {
	r, err := cur.Reader(ContainerHeaderSize)
	if err != nil {
		return nil, classify(err, KindNone, "reading container header")
	}

	var hdr ContainerHeader
	if err := struc.Unpack(r, &hdr); err != nil {
		return nil, classify(err, KindNone, "unpacking container header")
	}
	return &hdr, nil
}
