// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/danjacques/golrf/support/cursor"
	"github.com/danjacques/golrf/support/logging"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Decoder decodes replay containers.
//
// A Decoder is safe for concurrent use as long as its fields are not modified.
type Decoder struct {
	// Config controls decoding.
	Config Config

	// Registry selects and decodes stream payloads. If nil, DefaultRegistry is
	// used.
	Registry *Registry

	// Logger is the logger instance to use. If nil, no logging will be
	// performed.
	Logger logging.L
}

// part is a resolved index entry, ready for decoding.
type part struct {
	entry IndexEntry
	cur   *cursor.C
}

// DecodeBytes decodes an in-memory container.
func (d *Decoder) DecodeBytes(c context.Context, data []byte) (*Document, error) {
	return d.Decode(c, bytes.NewReader(data), int64(len(data)))
}

// DecodeFile decodes the container at path.
//
// The file is opened once, and closed before DecodeFile returns.
func (d *Decoder) DecodeFile(c context.Context, path string) (*Document, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening container")
	}
	defer func() {
		_ = fd.Close()
	}()

	st, err := fd.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat container")
	}
	if st.IsDir() {
		return nil, errors.Errorf("container %q is a directory", path)
	}
	return d.Decode(c, fd, st.Size())
}

// Decode decodes the container in the first size bytes of src.
//
// Decoding is all-or-nothing: if any part fails, Decode returns a nil
// Document and an error, which can be classified with KindOf. If the Config
// permits skipping unknown parts, those are omitted from the Document.
func (d *Decoder) Decode(c context.Context, src io.ReaderAt, size int64) (doc *Document, err error) {
	decoderActiveGauge.Inc()
	defer func() {
		decoderActiveGauge.Dec()
		if err != nil {
			decoderErrors.WithLabelValues(KindOf(err).String()).Inc()
		} else {
			decoderContainers.Inc()
		}
	}()

	logger := logging.Prefixed(d.Logger, fmt.Sprintf("[%s] ", uuid.New()))
	cur := cursor.New(src, size)

	hdr, err := readContainerHeader(cur)
	if err != nil {
		return nil, err
	}
	if !d.Config.versionAllowed(hdr.Version) {
		versions := d.Config.Versions
		if len(versions) == 0 {
			versions = DefaultVersions
		}
		return nil, mismatch(UnsupportedVersion, 0, versions, hdr.Version, "unsupported container version")
	}

	mdOffset := cur.Position()
	raw, err := cur.ReadExact(int(hdr.MetadataSize))
	if err != nil {
		return nil, classify(err, KindNone, "reading metadata")
	}
	md, err := parseMetadata(raw, mdOffset, &d.Config)
	if err != nil {
		return nil, err
	}
	dataOffset := cur.Position()
	logger.Debugf("Container version %d: %d byte(s) of metadata, %d index entr(ies).",
		hdr.Version, hdr.MetadataSize, len(md.Index))

	key, err := DeriveKey(md.MatchID, md.WrappedKey)
	if err != nil {
		return nil, err
	}
	block, err := NewPayloadCipher(key)
	if err != nil {
		return nil, err
	}
	pipeline := Pipeline{
		Block:       block,
		Compression: d.Config.Compression,
		MaxSize:     d.Config.maxPayloadSize(),
	}

	parts, err := d.resolveParts(cur, md, dataOffset, logger)
	if err != nil {
		return nil, err
	}

	registry := d.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	doc = &Document{
		Version:  hdr.Version,
		Metadata: *md,
		Parts:    make(map[string]*Stream, len(parts)),
	}
	for _, p := range parts {
		if err := c.Err(); err != nil {
			return nil, errors.Wrapf(err, "decoding part %q", p.entry.Key)
		}

		sd := StreamDecoder{
			Pipeline: &pipeline,
			Registry: registry,
			Part:     p.entry.Key,
			Logger:   logger,
		}
		s, err := sd.Decode(c, p.cur)
		if err != nil {
			return nil, err
		}
		doc.Parts[p.entry.Key] = s
		decoderParts.Inc()
	}
	logger.Infof("Decoded %d part(s) from version %d container.", len(doc.Parts), doc.Version)
	return doc, nil
}

// resolveParts maps each index entry to a cursor over its byte range.
func (d *Decoder) resolveParts(cur *cursor.C, md *Metadata, dataOffset int64, logger logging.L) ([]part, error) {
	parts := make([]part, 0, len(md.Index))
	for _, ent := range md.Index {
		if ent.Offset > uint64(math.MaxInt64-dataOffset) {
			return nil, &Error{Kind: TruncatedInput, Part: ent.Key, Offset: -1,
				Message: fmt.Sprintf("part offset %d is beyond any source", ent.Offset)}
		}
		start := dataOffset + int64(ent.Offset)

		if ent.Key != StreamPartKey {
			err := &Error{Kind: UnknownPartKey, Part: ent.Key, Offset: start,
				Expected: StreamPartKey, Actual: ent.Key, Message: "no decoder for part"}
			if d.Config.SkipUnknownParts {
				logger.Warnf("Skipping part %q: %s", ent.Key, err)
				decoderSkippedParts.Inc()
				continue
			}
			return nil, err
		}

		pc, err := cur.Section(start, int64(ent.Size))
		if err != nil {
			return nil, classify(err, KindNone, "locating part")
		}
		parts = append(parts, part{entry: ent, cur: pc})
	}
	return parts, nil
}
