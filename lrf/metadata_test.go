// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Metadata parsing", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = Config{}
	})

	DescribeTable("match IDs",
		func(raw string, expected MatchID, valid bool) {
			var id MatchID
			err := id.UnmarshalJSON([]byte(raw))
			if !valid {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).ToNot(HaveOccurred())
			Expect(id).To(Equal(expected))
		},
		Entry("integer", `42`, MatchID("42"), true),
		Entry("large integer", `18446744073709551615`, MatchID("18446744073709551615"), true),
		Entry("negative integer", `-7`, MatchID("-7"), true),
		Entry("string", `"EUW1-12345"`, MatchID("EUW1-12345"), true),
		Entry("float", `4.2`, MatchID(""), false),
		Entry("object", `{}`, MatchID(""), false),
	)

	It("parses the required fields and keeps the raw blob", func() {
		raw := []byte(`{
			"matchID": 1234,
			"encryptionKey": "AAECAwQFBgc=",
			"dataIndex": [{"Key": "stream", "Value": {"offset": 16, "size": 32}}],
			"extra": true
		}`)

		md, err := parseMetadata(raw, 8, &cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(md.MatchID).To(Equal(MatchID("1234")))
		Expect(md.WrappedKey).To(Equal([]byte{0, 1, 2, 3, 4, 5, 6, 7}))
		Expect(md.Index).To(Equal([]IndexEntry{{Key: "stream", Offset: 16, Size: 32}}))
		Expect(md.Raw).To(Equal(raw))
	})

	DescribeTable("malformed metadata",
		func(raw string) {
			_, err := parseMetadata([]byte(raw), 8, &cfg)
			Expect(KindOf(err)).To(Equal(MalformedMetadata))
			Expect(err.(*Error).Offset).To(Equal(int64(8)))
		},
		Entry("invalid JSON", `{"matchID": `),
		Entry("missing matchID", `{"encryptionKey": "", "dataIndex": []}`),
		Entry("null matchID", `{"matchID": null, "encryptionKey": "", "dataIndex": []}`),
		Entry("empty matchID", `{"matchID": "", "encryptionKey": "", "dataIndex": []}`),
		Entry("missing encryptionKey", `{"matchID": 1, "dataIndex": []}`),
		Entry("missing dataIndex", `{"matchID": 1, "encryptionKey": ""}`),
		Entry("invalid base64", `{"matchID": 1, "encryptionKey": "!!", "dataIndex": []}`),
		Entry("incomplete entry", `{"matchID": 1, "encryptionKey": "", "dataIndex": [{"Key": "stream"}]}`),
		Entry("duplicate key", `{"matchID": 1, "encryptionKey": "", "dataIndex": [
			{"Key": "stream", "Value": {"offset": 0, "size": 1}},
			{"Key": "stream", "Value": {"offset": 1, "size": 1}}]}`),
		Entry("oversized size", `{"matchID": 1, "encryptionKey": "", "dataIndex": [
			{"Key": "stream", "Value": {"offset": 0, "size": 4294967296}}]}`),
	)

	It("enforces a 32-bit offset width when configured", func() {
		raw := []byte(`{"matchID": 1, "encryptionKey": "", "dataIndex": [
			{"Key": "stream", "Value": {"offset": 4294967296, "size": 1}}]}`)

		_, err := parseMetadata(raw, 0, &cfg)
		Expect(err).ToNot(HaveOccurred())

		cfg.OffsetWidth = 32
		_, err = parseMetadata(raw, 0, &cfg)
		Expect(KindOf(err)).To(Equal(MalformedMetadata))
	})
})
