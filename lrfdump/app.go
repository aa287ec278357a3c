// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package lrfdump defines the logic for the "lrfdump" app.
//
// lrfdump decodes one or more replay containers and prints a summary of each:
// the container's metadata, and the records in each of its parts. Decoder
// settings are read from the environment (see lrf.Config), and may be
// overridden on the command line.
package lrfdump

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/danjacques/golrf/lrf"
	"github.com/danjacques/golrf/lrf/payload"
	"github.com/danjacques/golrf/support/fmtutil"
	"github.com/danjacques/golrf/support/logging"

	"github.com/caarlos0/env/v11"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"
)

const (
	previewSize = 64
	// rawPreviewSize is the number of raw response bytes shown in hex.
	rawPreviewSize = 16
)

// Main is the main entry point.
func Main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	cfg lrf.Config

	json     bool
	records  bool
	metrics  bool
	verbose  bool
	failFast bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	compression := (*lrf.CompressionFlag)(&o.cfg.Compression)
	fs.Var(compression, "compression",
		fmt.Sprintf("Payload compression. Options are: %s", lrf.CompressionFlagValues()))
	fs.IntVar(&o.cfg.OffsetWidth, "offset-width", o.cfg.OffsetWidth, "Width of index offsets, in bits (32 or 64).")
	fs.Int64Var(&o.cfg.MaxPayloadSize, "max-payload-size", o.cfg.MaxPayloadSize,
		"Maximum size of a decompressed payload. If <= 0, use the default.")
	fs.BoolVar(&o.cfg.SkipUnknownParts, "skip-unknown", o.cfg.SkipUnknownParts, "Skip parts with unrecognized keys.")

	fs.BoolVar(&o.json, "json", false, "Emit a JSON summary instead of text.")
	fs.BoolVarP(&o.records, "records", "r", false, "List every record.")
	fs.BoolVar(&o.metrics, "metrics", false, "Print decoder metrics after decoding.")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging.")
	fs.BoolVar(&o.failFast, "fail-fast", false, "Stop at the first container that fails to decode.")
}

func run(c context.Context, args []string, stdout, stderr io.Writer) int {
	var o options
	if err := env.Parse(&o.cfg); err != nil {
		fmt.Fprintf(stderr, "Invalid environment: %s\n", err)
		return 2
	}

	fs := pflag.NewFlagSet("lrfdump", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	o.addFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: lrfdump [flags] CONTAINER...")
		fs.PrintDefaults()
		return 2
	}

	reg := prometheus.NewRegistry()
	lrf.RegisterMonitoring(reg)

	d := lrf.Decoder{
		Config: o.cfg,
		Logger: logging.Std(log.New(stderr, "", log.LstdFlags), o.verbose),
	}

	rc := 0
	for _, path := range fs.Args() {
		doc, err := d.DecodeFile(c, path)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %s\n", path, describeError(err))
			rc = 1
			if o.failFast {
				break
			}
			continue
		}

		sum := summarize(path, doc, o.records)
		if o.json {
			err = writeJSON(stdout, sum)
		} else {
			err = writeText(stdout, sum)
		}
		if err != nil {
			fmt.Fprintf(stderr, "Failed to write summary: %s\n", err)
			return 1
		}
	}

	if o.metrics {
		if err := writeMetrics(stdout, reg); err != nil {
			fmt.Fprintf(stderr, "Failed to write metrics: %s\n", err)
			return 1
		}
	}
	return rc
}

func describeError(err error) string {
	if k := lrf.KindOf(err); k != lrf.KindNone {
		return fmt.Sprintf("[%s] %s", k, err)
	}
	return err.Error()
}

type recordSummary struct {
	Index     int      `json:"index"`
	Request   string   `json:"request"`
	Kind      string   `json:"kind"`
	Timestamp *float32 `json:"timestamp,omitempty"`
	Size      int      `json:"size"`
	Raw       string   `json:"raw,omitempty"`
}

type partSummary struct {
	Key          string          `json:"key"`
	Offset       uint64          `json:"offset"`
	Size         uint32          `json:"size"`
	Type         string          `json:"type"`
	DeclaredSize uint32          `json:"declaredSize"`
	Counts       map[string]int  `json:"counts"`
	FirstTime    *float32        `json:"firstTimestamp,omitempty"`
	LastTime     *float32        `json:"lastTimestamp,omitempty"`
	Records      []recordSummary `json:"records,omitempty"`
}

type containerSummary struct {
	Path    string        `json:"path"`
	Version uint32        `json:"version"`
	MatchID string        `json:"matchID"`
	Parts   []partSummary `json:"parts"`
}

func summarize(path string, doc *lrf.Document, records bool) *containerSummary {
	sum := containerSummary{
		Path:    path,
		Version: doc.Version,
		MatchID: string(doc.Metadata.MatchID),
	}

	entries := make(map[string]lrf.IndexEntry, len(doc.Metadata.Index))
	for _, ent := range doc.Metadata.Index {
		entries[ent.Key] = ent
	}

	for _, key := range doc.PartKeys() {
		s := doc.Parts[key]
		ps := partSummary{
			Key:          key,
			Offset:       entries[key].Offset,
			Size:         entries[key].Size,
			Type:         fmtutil.HexByte(s.Header.Type).String(),
			DeclaredSize: s.Header.DeclaredSize,
			Counts:       make(map[string]int, 3),
		}
		for _, k := range []payload.Kind{payload.KindRaw, payload.KindChunk, payload.KindKeyframe} {
			if n := s.Count(k); n > 0 {
				ps.Counts[k.String()] = n
			}
		}
		if ts := s.Timestamps(); len(ts) > 0 {
			ps.FirstTime, ps.LastTime = &ts[0], &ts[len(ts)-1]
		}

		if records {
			ps.Records = make([]recordSummary, len(s.Records))
			for i := range s.Records {
				ps.Records[i] = summarizeRecord(i, &s.Records[i])
			}
		}
		sum.Parts = append(sum.Parts, ps)
	}
	return &sum
}

func summarizeRecord(i int, rec *lrf.Record) recordSummary {
	rs := recordSummary{
		Index:   i,
		Request: fmtutil.Preview{Data: rec.Request.Payload, Max: previewSize}.String(),
		Kind:    rec.Response.Kind().String(),
	}

	switch r := rec.Response.(type) {
	case lrf.Segment:
		rs.Size = len(r.Payload)
		raw := r.Payload
		if len(raw) > rawPreviewSize {
			raw = raw[:rawPreviewSize]
		}
		rs.Raw = fmtutil.HexSlice(raw).String()
	case *payload.Chunk:
		rs.Size = payload.ChunkHeaderSize + len(r.Body)
	case *payload.Keyframe:
		rs.Size = payload.KeyframeHeaderSize + len(r.Body)
	}
	if pr := rec.Decoded(); pr != nil {
		ts := pr.Timestamp()
		rs.Timestamp = &ts
	}
	return rs
}

func writeJSON(w io.Writer, sum *containerSummary) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(sum), "encoding JSON")
}

func writeText(w io.Writer, sum *containerSummary) error {
	ew := errWriter{w: w}
	ew.printf("%s: version %d, match %s, %d part(s)\n", sum.Path, sum.Version, sum.MatchID, len(sum.Parts))
	for _, ps := range sum.Parts {
		ew.printf("  part %q @%d (+%d): type %s, declared size %d\n",
			ps.Key, ps.Offset, ps.Size, ps.Type, ps.DeclaredSize)

		kinds := make([]string, 0, len(ps.Counts))
		for k := range ps.Counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			ew.printf("    %-8s %d\n", k, ps.Counts[k])
		}
		if ps.FirstTime != nil {
			ew.printf("    time     %.3f .. %.3f\n", *ps.FirstTime, *ps.LastTime)
		}

		for _, rs := range ps.Records {
			ew.printf("    #%d %s %q (%d byte(s))", rs.Index, rs.Kind, rs.Request, rs.Size)
			if rs.Timestamp != nil {
				ew.printf(" @%.3f", *rs.Timestamp)
			}
			if rs.Raw != "" {
				ew.printf(" %s", rs.Raw)
			}
			ew.printf("\n")
		}
	}
	return ew.err
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "encoding metric %q", mf.GetName())
		}
	}
	return nil
}

// errWriter retains the first write error, so a sequence of writes can be
// checked once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(f string, args ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, f, args...)
	}
}
