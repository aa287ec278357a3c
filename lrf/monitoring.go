// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decoderActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lrf_decoder_active",
		Help: "Count of containers currently being decoded.",
	})

	decoderContainers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lrf_decoder_containers",
		Help: "Count of containers successfully decoded.",
	})

	decoderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lrf_decoder_errors",
		Help: "Count of failed decodes, by error kind.",
	}, []string{"kind"})

	decoderParts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lrf_decoder_parts",
		Help: "Count of decoded parts.",
	})

	decoderSkippedParts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lrf_decoder_skipped_parts",
		Help: "Count of index entries skipped due to an unknown key.",
	})

	decoderRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lrf_decoder_records",
		Help: "Count of decoded records, by response kind.",
	}, []string{"kind"})

	decoderPayloadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lrf_decoder_payload_bytes",
		Help: "Count of decrypted and decompressed payload bytes.",
	})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		decoderActiveGauge,
		decoderContainers,
		decoderErrors,
		decoderParts,
		decoderSkippedParts,
		decoderRecords,
		decoderPayloadBytes,
	)
}
