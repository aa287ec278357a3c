// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lrf

import (
	"bytes"

	"github.com/danjacques/golrf/lrf/payload"
)

const (
	// ChunkMarker marks a request for a game data chunk.
	ChunkMarker = "getGameDataChunk"
	// KeyframeMarker marks a request for a keyframe.
	KeyframeMarker = "getKeyFrame"
)

// Route associates requests with the Decoder for their responses.
type Route struct {
	// Name names the route, for logging.
	Name string
	// Match returns true if a request belongs to this route.
	Match func(request []byte) bool
	// Decoder decodes the route's transformed responses.
	Decoder payload.Decoder
}

// MatchSubstring returns a Route Match function that matches requests
// containing s. Matching is case-sensitive.
func MatchSubstring(s string) func([]byte) bool {
	sb := []byte(s)
	return func(request []byte) bool { return bytes.Contains(request, sb) }
}

// Registry is an ordered list of Routes. The first Route whose Match accepts a
// request is used.
//
// A Registry must not be modified while it is in use.
type Registry struct {
	routes []Route
}

// NewRegistry returns a Registry consulting routes in order.
func NewRegistry(routes ...Route) *Registry {
	return &Registry{routes: append([]Route(nil), routes...)}
}

// DefaultRegistry returns a Registry that decodes game data chunks and
// keyframes. Chunks take precedence if a request carries both markers.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Route{
			Name:    "chunk",
			Match:   MatchSubstring(ChunkMarker),
			Decoder: payload.DecoderFunc(payload.DecodeChunk),
		},
		Route{
			Name:    "keyframe",
			Match:   MatchSubstring(KeyframeMarker),
			Decoder: payload.DecoderFunc(payload.DecodeKeyframe),
		},
	)
}

// Lookup returns the first Route that matches request, or nil if none does.
func (r *Registry) Lookup(request []byte) *Route {
	if r == nil {
		return nil
	}
	for i := range r.routes {
		if r.routes[i].Match(request) {
			return &r.routes[i]
		}
	}
	return nil
}

// Routes returns the Registry's Routes, in precedence order.
func (r *Registry) Routes() []Route { return append([]Route(nil), r.routes...) }
