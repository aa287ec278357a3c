// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/danjacques/golrf/lrf"
	"github.com/danjacques/golrf/lrf/lrftest"
	"github.com/danjacques/golrf/lrf/payload"
	"github.com/danjacques/golrf/support/logging"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// brokenReaderAt fails every read with err.
type brokenReaderAt struct{ err error }

func (r brokenReaderAt) ReadAt([]byte, int64) (int, error) { return 0, r.err }

var _ = Describe("Decoder", func() {
	var (
		c       context.Context
		d       *lrf.Decoder
		key     []byte
		logBuf  bytes.Buffer
		stream  *lrftest.Stream
		ctr     *lrftest.Container
		decodeC func() (*lrf.Document, error)
	)

	BeforeEach(func() {
		c = context.Background()
		logBuf.Reset()
		d = &lrf.Decoder{
			Logger: logging.Std(log.New(&logBuf, "", 0), true),
		}

		key = []byte("s3cr3t!")
		stream = &lrftest.Stream{
			Segments: lrftest.Pair("/observer-mode/rest/consumer/getKeyFrame/EUW1/42/1/token",
				lrftest.Payload(key, lrftest.KeyframeData(12.5, []byte("keyframe body")))),
		}
		ctr = &lrftest.Container{
			Version: 1,
			MatchID: 42,
			Key:     key,
			Parts:   []lrftest.Part{{Key: lrf.StreamPartKey, Data: stream.Bytes()}},
		}

		decodeC = func() (*lrf.Document, error) {
			return d.DecodeBytes(c, ctr.Build().Data)
		}
	})

	It("decodes a keyframe container", func() {
		md := ctr.Metadata()
		Expect(len(lrftest.WrapKey("42", key))).To(Equal(8))

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())

		Expect(doc.Version).To(Equal(uint32(1)))
		Expect(doc.Metadata.MatchID).To(Equal(lrf.MatchID("42")))
		Expect(doc.Metadata.Raw).To(Equal(md))
		Expect(doc.PartKeys()).To(Equal([]string{"stream"}))

		s := doc.Parts["stream"]
		Expect(s.Records).To(HaveLen(1))

		rec := s.Records[0].Decoded()
		Expect(rec.Kind()).To(Equal(payload.KindKeyframe))
		Expect(rec.Timestamp()).To(Equal(float32(12.5)))
		Expect(rec.(*payload.Keyframe).Body).To(Equal([]byte("keyframe body")))

		Expect(logBuf.String()).To(ContainSubstring("Decoded 1 part(s) from version 1 container."))
	})

	It("decodes containers with string match IDs", func() {
		ctr.MatchID = "EUW1-42"

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Metadata.MatchID).To(Equal(lrf.MatchID("EUW1-42")))
		Expect(doc.Parts["stream"].Timestamps()).To(Equal([]float32{12.5}))
	})

	It("keeps unrouted responses raw", func() {
		stream.Segments = lrftest.Pair("getLastChunkInfo", []byte{0xFF, 0x00})
		ctr.Parts[0].Data = stream.Bytes()

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
		rec := doc.Parts["stream"].Records[0]
		Expect(rec.Decoded()).To(BeNil())
		Expect(rec.Response).To(Equal(lrf.Segment{Payload: []byte{0xFF, 0x00}}))
	})

	It("decodes with a custom registry", func() {
		d.Registry = lrf.NewRegistry()

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Parts["stream"].Count(payload.KindRaw)).To(Equal(1))
	})

	It("fails without a document on an unknown part", func() {
		ctr.Parts = append(ctr.Parts, lrftest.Part{Key: "frames", Data: []byte("unused")})

		doc, err := decodeC()
		Expect(doc).To(BeNil())
		Expect(lrf.KindOf(err)).To(Equal(lrf.UnknownPartKey))
		Expect(err.(*lrf.Error).Part).To(Equal("frames"))
	})

	It("skips unknown parts when configured", func() {
		d.Config.SkipUnknownParts = true
		ctr.Parts = append([]lrftest.Part{{Key: "frames", Data: []byte("unused")}}, ctr.Parts...)

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.PartKeys()).To(Equal([]string{"stream"}))
		Expect(doc.Parts["stream"].Records).To(HaveLen(1))
		Expect(logBuf.String()).To(ContainSubstring(`Skipping part "frames"`))
	})

	It("rejects unsupported versions", func() {
		ctr.Version = 3

		doc, err := decodeC()
		Expect(doc).To(BeNil())
		Expect(lrf.KindOf(err)).To(Equal(lrf.UnsupportedVersion))
		Expect(err.(*lrf.Error).Offset).To(Equal(int64(0)))
		Expect(err.(*lrf.Error).Actual).To(Equal(uint32(3)))
	})

	It("accepts configured versions", func() {
		ctr.Version = 3
		d.Config.Versions = []uint32{3}

		_, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
	})

	It("rejects a header-only input", func() {
		_, err := d.DecodeBytes(c, []byte{1, 0, 0})
		Expect(lrf.KindOf(err)).To(Equal(lrf.TruncatedInput))
	})

	It("rejects truncated metadata", func() {
		data := ctr.Build().Data
		binary.LittleEndian.PutUint32(data[4:], uint32(len(data)))

		doc, err := d.DecodeBytes(c, data)
		Expect(doc).To(BeNil())
		Expect(lrf.KindOf(err)).To(Equal(lrf.TruncatedInput))
	})

	It("rejects malformed metadata", func() {
		ctr.Omit = []string{"encryptionKey"}

		_, err := decodeC()
		Expect(lrf.KindOf(err)).To(Equal(lrf.MalformedMetadata))
		Expect(err.(*lrf.Error).Offset).To(Equal(int64(lrf.ContainerHeaderSize)))
	})

	It("rejects metadata that is not JSON", func() {
		_, err := d.DecodeBytes(c, ctr.BuildWithMetadata([]byte("not json")).Data)
		Expect(lrf.KindOf(err)).To(Equal(lrf.MalformedMetadata))
	})

	It("rejects a part beyond the end of the input", func() {
		data := ctr.Build().Data
		_, err := d.DecodeBytes(c, data[:len(data)-4])
		Expect(lrf.KindOf(err)).To(Equal(lrf.TruncatedInput))
	})

	It("reports corrupt terminators at their absolute offset", func() {
		b := ctr.Build()
		off := b.PartOffsets[0] + stream.TerminatorOffset(1)
		b.Data[off] = 0x00

		doc, err := d.DecodeBytes(c, b.Data)
		Expect(doc).To(BeNil())
		Expect(lrf.KindOf(err)).To(Equal(lrf.SegmentMagicError))
		Expect(err.(*lrf.Error).Offset).To(Equal(int64(off)))
		Expect(err.(*lrf.Error).Part).To(Equal("stream"))
	})

	It("reports a stream size mismatch at the start of the part", func() {
		b := ctr.Build()
		b.Data[b.PartOffsets[0]+lrftest.PayloadSizeOffset]++

		_, err := d.DecodeBytes(c, b.Data)
		Expect(lrf.KindOf(err)).To(Equal(lrf.StreamSizeMismatch))
		Expect(err.(*lrf.Error).Offset).To(Equal(int64(b.PartOffsets[0])))
	})

	It("checks its context before each part, even an empty one", func() {
		stream.Segments = nil
		ctr.Parts[0].Data = stream.Bytes()

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Parts["stream"].Records).To(BeEmpty())

		cc, cancel := context.WithCancel(c)
		cancel()
		doc, err = d.DecodeBytes(cc, ctr.Build().Data)
		Expect(doc).To(BeNil())
		Expect(errors.Cause(err)).To(Equal(context.Canceled))
	})

	It("decodes snappy-compressed payloads when configured", func() {
		d.Config.Compression = lrf.CompressionSnappy
		stream.Segments = lrftest.Pair("getGameDataChunk/1",
			lrftest.Encrypt(key, lrftest.Snappy(lrftest.ChunkData(0x02, 3.25, nil))))
		ctr.Parts[0].Data = stream.Bytes()

		doc, err := decodeC()
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Parts["stream"].Timestamps()).To(Equal([]float32{3.25}))
	})

	It("returns context errors", func() {
		cc, cancel := context.WithCancel(c)
		cancel()

		doc, err := d.DecodeBytes(cc, ctr.Build().Data)
		Expect(doc).To(BeNil())
		Expect(err).To(HaveOccurred())
		Expect(lrf.KindOf(err)).To(Equal(lrf.KindNone))
	})

	It("does not mistake source read failures for truncation", func() {
		doc, err := d.Decode(c, brokenReaderAt{io.ErrClosedPipe}, 1024)
		Expect(doc).To(BeNil())
		Expect(lrf.KindOf(err)).To(Equal(lrf.KindNone))
		Expect(errors.Cause(err)).To(Equal(io.ErrClosedPipe))
	})

	Context("with a container file", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = ioutil.TempDir("", "lrf_decoder_test")
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() {
			Expect(os.RemoveAll(dir)).To(Succeed())
		})

		It("decodes the file", func() {
			path := filepath.Join(dir, "match.lrf")
			Expect(ioutil.WriteFile(path, ctr.Build().Data, 0644)).To(Succeed())

			doc, err := d.DecodeFile(c, path)
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Parts["stream"].Timestamps()).To(Equal([]float32{12.5}))
		})

		It("refuses directories without classifying them as input errors", func() {
			_, err := d.DecodeFile(c, dir)
			Expect(err).To(HaveOccurred())
			Expect(lrf.KindOf(err)).To(Equal(lrf.KindNone))
		})

		It("reports a missing file", func() {
			_, err := d.DecodeFile(c, filepath.Join(dir, "missing.lrf"))
			Expect(err).To(HaveOccurred())
			Expect(os.IsNotExist(errors.Cause(err))).To(BeTrue())
		})
	})
})
