// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package fmtutil contains formatting helpers.
package fmtutil

import (
	"bytes"
	"fmt"
	"unicode"
)

// HexByte is a byte that renders as "0xNN".
type HexByte byte

func (hb HexByte) String() string { return fmt.Sprintf("0x%02X", byte(hb)) }

// HexSlice is a byte slice that renders as a sequence of hex bytes, instead
// of the default decimal bytes.
//
// Output as: "[4]byte{0x10, 0x20, 0x30, 0x40}"
//
// It can be used for easy lazy hex dumping.
type HexSlice []byte

func (hs HexSlice) String() string {
	var sb bytes.Buffer
	sb.Grow((6 * len(hs)) + 16) // 16 is more than we need for static content.
	fmt.Fprintf(&sb, "[%d]byte{", len(hs))
	for i, b := range hs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02X", b)
	}
	sb.WriteString("}")
	return sb.String()
}

// Preview renders at most max bytes of b as text, replacing unprintable
// bytes with '.' and marking truncation with "...".
//
// It is meant for logging request strings, which are mostly printable.
type Preview struct {
	Data []byte
	Max  int
}

func (p Preview) String() string {
	data := p.Data
	truncated := false
	if p.Max > 0 && len(data) > p.Max {
		data, truncated = data[:p.Max], true
	}

	var sb bytes.Buffer
	sb.Grow(len(data) + 3)
	for _, b := range data {
		if b < unicode.MaxASCII && unicode.IsPrint(rune(b)) {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	if truncated {
		sb.WriteString("...")
	}
	return sb.String()
}
