// Package source owns the raw bytes of one file plus a line table for
// fast offset<->(line,column) conversion (spec §3, component A).
package source

import (
	"sort"
	"unicode/utf8"
)

// File owns the raw bytes of one file and its display path. It is
// immutable once constructed and is expected to live for the duration of
// a single file's analysis (internal/orchestrator frees it before moving
// to the next file).
type File struct {
	Path string
	Text []byte

	// lineStarts holds the byte offset of each line start: offset 0 plus
	// the offset immediately after each '\n' byte.
	lineStarts []int
}

// New constructs a File, scanning the bytes once to build the line table.
// Encoding is assumed UTF-8 with tolerance: invalid sequences inside
// string/comment regions don't break line counting, since the scan only
// looks for literal '\n' bytes regardless of surrounding encoding.
func New(path string, text []byte) *File {
	f := &File{Path: path, Text: text}
	f.lineStarts = make([]int, 1, 16)
	f.lineStarts[0] = 0
	for i, b := range text {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// Len returns the number of bytes in the source.
func (f *File) Len() int { return len(f.Text) }

// LineCount returns the number of lines in the file. A file with no
// trailing newline still counts its last partial line.
func (f *File) LineCount() int {
	if len(f.Text) == 0 {
		return 0
	}
	n := len(f.lineStarts)
	if f.lineStarts[n-1] == len(f.Text) {
		// Trailing newline: the "line" after it is empty and not counted.
		return n - 1
	}
	return n
}

// Position is a 1-based (line, column) pair. Column counts Unicode code
// points from the start of the line, not bytes (spec §8 boundary
// behavior: multi-byte characters report a code-point column).
type Position struct {
	Line   int
	Column int
}

// OffsetToPosition converts a byte offset into a 1-based (line, column)
// pair in O(log n) via binary search over the line table.
func (f *File) OffsetToPosition(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Text) {
		offset = len(f.Text)
	}

	// Largest lineStarts[i] <= offset.
	idx := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}

	lineStart := f.lineStarts[idx]
	col := utf8.RuneCount(f.Text[lineStart:offset]) + 1
	return Position{Line: idx + 1, Column: col}
}

// PositionToOffset converts a 1-based (line, column) pair back to a byte
// offset. Out-of-range lines/columns clamp to the nearest valid offset.
func (f *File) PositionToOffset(pos Position) int {
	line := pos.Line - 1
	if line < 0 {
		return 0
	}
	if line >= len(f.lineStarts) {
		return len(f.Text)
	}

	lineStart := f.lineStarts[line]
	lineEnd := len(f.Text)
	if line+1 < len(f.lineStarts) {
		lineEnd = f.lineStarts[line+1]
	}

	remaining := pos.Column - 1
	offset := lineStart
	for remaining > 0 && offset < lineEnd {
		_, size := utf8.DecodeRune(f.Text[offset:lineEnd])
		if size <= 0 {
			size = 1
		}
		offset += size
		remaining--
	}
	if offset > lineEnd {
		offset = lineEnd
	}
	return offset
}

// Line returns the raw bytes of the given 1-based line, excluding its
// terminating newline.
func (f *File) Line(n int) []byte {
	idx := n - 1
	if idx < 0 || idx >= len(f.lineStarts) {
		return nil
	}
	start := f.lineStarts[idx]
	end := len(f.Text)
	if idx+1 < len(f.lineStarts) {
		end = f.lineStarts[idx+1]
	}
	line := f.Text[start:end]
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

// HasTrailingNewline reports whether the file's last byte is '\n'.
func (f *File) HasTrailingNewline() bool {
	return len(f.Text) > 0 && f.Text[len(f.Text)-1] == '\n'
}
