// Package highlight turns an external incremental parser's captures into
// per-line style spans. A background worker goroutine owns the parse state
// and serially applies text edits; a bounded, viewport-aware cache serves
// span queries to the render goroutine without ever blocking it.
package highlight

import (
	"context"
	"sort"

	"github.com/dshills/stormlight/internal/styling"
)

// Point is a row/column position in the document, byte-based columns.
type Point struct {
	Row    uint32
	Column uint32
}

// Edit describes a byte-range replacement: the text between StartByte and
// OldEndByte was replaced by the text between StartByte and NewEndByte.
// Points carry the same positions in row/column form for parsers that need
// them.
type Edit struct {
	StartByte  uint32
	OldEndByte uint32
	NewEndByte uint32

	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// Capture is one styled region reported by the parser: a byte range plus
// the index of the capture that matched it. Captures for a query range are
// ordered by start byte and do not overlap.
type Capture struct {
	StartByte uint32
	EndByte   uint32
	Index     uint16
}

// CapturesIn returns the subslice of caps overlapping [startByte, endByte).
// caps must be sorted and non-overlapping.
func CapturesIn(caps []Capture, startByte, endByte uint32) []Capture {
	i := sort.Search(len(caps), func(k int) bool { return caps[k].EndByte > startByte })
	j := sort.Search(len(caps), func(k int) bool { return caps[k].StartByte >= endByte })
	if i >= j {
		return nil
	}
	return caps[i:j:j]
}

// CaptureSource is the boundary to the external incremental parser. One
// source belongs to one document; the worker goroutine is the only caller
// of Init and Edit, and Captures is only reached through the guarded tree's
// try-lock path.
type CaptureSource interface {
	// Init parses text from scratch, replacing any previous tree.
	Init(ctx context.Context, text []byte) error

	// Edit applies an incremental edit and reparses against the new text.
	Edit(ctx context.Context, edit Edit, text []byte) error

	// Captures returns the ordered captures overlapping [startByte, endByte).
	Captures(startByte, endByte uint32) ([]Capture, error)

	// CaptureNames returns the capture index namespace, used to compile a
	// style mapping.
	CaptureNames() []string

	// Release frees parser and tree resources.
	Release()
}

// StyleMapper resolves a capture index to a style. Implementations are
// immutable once built; a scheme swap installs a new mapper.
type StyleMapper interface {
	StyleFor(index uint16) styling.Style
}

// LineIndex resolves line numbers to document byte ranges.
type LineIndex interface {
	// LineRange returns the byte range [start, end) of the line's content,
	// excluding the trailing newline. ok is false when line is out of range.
	LineRange(line int) (start, end uint32, ok bool)

	// LineCount returns the number of lines in the document.
	LineCount() int
}
