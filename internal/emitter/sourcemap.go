package emitter

import (
	"encoding/json"
	"strings"
)

// SourceMap ties positions of the generated text back to the source file.
// It serializes to the version 3 source map format.
type SourceMap struct {
	File    string
	Source  string
	entries []mapping
}

// mapping is one zero-based position pair.
type mapping struct {
	genLine, genCol int
	srcLine, srcCol int
}

// NewSourceMap returns an empty map for one generated file.
func NewSourceMap(file, source string) *SourceMap {
	return &SourceMap{File: file, Source: source}
}

// Add records that the generated position maps to the source position.
// Entries must be added in generated order.
func (m *SourceMap) Add(genLine, genCol, srcLine, srcCol int) {
	m.entries = append(m.entries, mapping{genLine, genCol, srcLine, srcCol})
}

// Len returns the number of recorded mappings.
func (m *SourceMap) Len() int { return len(m.entries) }

// Lookup returns the source position of the last mapping at or before the
// generated position on the same line.
func (m *SourceMap) Lookup(genLine, genCol int) (srcLine, srcCol int, ok bool) {
	for _, e := range m.entries {
		if e.genLine > genLine || (e.genLine == genLine && e.genCol > genCol) {
			break
		}
		if e.genLine == genLine {
			srcLine, srcCol, ok = e.srcLine, e.srcCol, true
		}
	}
	return srcLine, srcCol, ok
}

// Mappings encodes the entries as base64 VLQ segments.
func (m *SourceMap) Mappings() string {
	var sb strings.Builder
	line, prevCol, prevSrcLine, prevSrcCol := 0, 0, 0, 0
	first := true
	for _, e := range m.entries {
		for line < e.genLine {
			sb.WriteByte(';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		writeVLQ(&sb, e.genCol-prevCol)
		writeVLQ(&sb, 0)
		writeVLQ(&sb, e.srcLine-prevSrcLine)
		writeVLQ(&sb, e.srcCol-prevSrcCol)
		prevCol, prevSrcLine, prevSrcCol = e.genCol, e.srcLine, e.srcCol
	}
	return sb.String()
}

type sourceMapJSON struct {
	Version  int      `json:"version"`
	File     string   `json:"file"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// MarshalJSON renders the map document.
func (m *SourceMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(sourceMapJSON{
		Version:  3,
		File:     m.File,
		Sources:  []string{m.Source},
		Names:    []string{},
		Mappings: m.Mappings(),
	})
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// writeVLQ appends the base64 VLQ encoding of n: the sign in the lowest
// bit, five bits per digit, continuation in the sixth.
func writeVLQ(sb *strings.Builder, n int) {
	v := n << 1
	if n < 0 {
		v = (-n << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		sb.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}
