// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	parse := func(environ map[string]string) (Config, error) {
		var cfg Config
		err := env.ParseWithOptions(&cfg, env.Options{Environment: environ})
		return cfg, err
	}

	It("uses defaults for an empty environment", func() {
		cfg, err := parse(map[string]string{})
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.OffsetWidth).To(Equal(64))
		Expect(cfg.Compression).To(Equal(CompressionGzip))
		Expect(cfg.maxPayloadSize()).To(Equal(int64(DefaultMaxPayloadSize)))
		Expect(cfg.versionAllowed(1)).To(BeTrue())
		Expect(cfg.versionAllowed(2)).To(BeTrue())
		Expect(cfg.versionAllowed(3)).To(BeFalse())
	})

	It("loads settings from the environment", func() {
		cfg, err := parse(map[string]string{
			"LRF_VERSIONS":           "3,4",
			"LRF_OFFSET_WIDTH":       "32",
			"LRF_COMPRESSION":        "snappy",
			"LRF_MAX_PAYLOAD_SIZE":   "1024",
			"LRF_SKIP_UNKNOWN_PARTS": "true",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Versions).To(Equal([]uint32{3, 4}))
		Expect(cfg.versionAllowed(1)).To(BeFalse())
		Expect(cfg.versionAllowed(4)).To(BeTrue())
		Expect(cfg.maxOffset()).To(Equal(uint64(1<<32 - 1)))
		Expect(cfg.Compression).To(Equal(CompressionSnappy))
		Expect(cfg.maxPayloadSize()).To(Equal(int64(1024)))
		Expect(cfg.SkipUnknownParts).To(BeTrue())
	})

	It("rejects unknown compression names", func() {
		_, err := parse(map[string]string{"LRF_COMPRESSION": "lzma"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CompressionFlag", func() {
	DescribeTable("parsing",
		func(v string, expected Compression) {
			var cf CompressionFlag
			Expect(cf.Set(v)).To(Succeed())
			Expect(cf.Value()).To(Equal(expected))
			Expect(cf.String()).To(Equal(expected.String()))
		},
		Entry("gzip", "gzip", CompressionGzip),
		Entry("snappy", "SNAPPY", CompressionSnappy),
		Entry("none", "None", CompressionNone),
	)

	It("works with a pflag.FlagSet", func() {
		var cf CompressionFlag
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.Var(&cf, "compression", "compression")

		Expect(fs.Parse([]string{"--compression", "none"})).To(Succeed())
		Expect(cf.Value()).To(Equal(CompressionNone))
		Expect(fs.Parse([]string{"--compression", "bogus"})).ToNot(Succeed())
	})

	It("lists values in enumeration order", func() {
		Expect(CompressionFlagValues()).To(Equal("GZIP, SNAPPY, NONE"))
		Expect(Compression(42).String()).To(Equal("UNKNOWN"))
	})
})
