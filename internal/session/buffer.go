package session

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/stormlight/internal/highlight"
)

// Errors returned by buffer operations.
var (
	ErrPositionOutOfRange = errors.New("session: position out of range")
	ErrRangeInvalid       = errors.New("session: invalid range")
)

// Position is a line/column pair. Columns count bytes from the line start.
type Position struct {
	Line int
	Col  int
}

// Buffer holds document text with a line offset index. The content slice
// is never mutated in place: every edit builds a fresh one, so snapshots
// handed to the parse worker stay stable while later edits land.
type Buffer struct {
	mu      sync.RWMutex
	content []byte
	starts  []uint32
}

// NewBuffer creates a buffer with initial content. Line endings are
// normalized to LF.
func NewBuffer(text []byte) *Buffer {
	content := normalizeLineEndings(text)
	return &Buffer{
		content: content,
		starts:  lineStarts(content),
	}
}

// normalizeLineEndings converts CRLF and CR to LF. It always copies, so
// callers reusing their slice cannot reach buffer content.
func normalizeLineEndings(text []byte) []byte {
	out := bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

// lineStarts indexes the byte offset of every line start. An empty
// document has one empty line; a trailing newline opens one more.
func lineStarts(content []byte) []uint32 {
	starts := []uint32{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

// Text returns the current content. The slice must not be mutated.
func (b *Buffer) Text() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content
}

// Len returns the total byte length.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.content)
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.starts)
}

// LineRange returns the byte range of a line's content, excluding the
// trailing newline.
func (b *Buffer) LineRange(line int) (start, end uint32, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.starts) {
		return 0, 0, false
	}
	return b.starts[line], b.lineEndLocked(line), true
}

// LineText returns a line's content without the trailing newline.
func (b *Buffer) LineText(line int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.starts) {
		return ""
	}
	return string(b.content[b.starts[line]:b.lineEndLocked(line)])
}

// PointToOffset converts a position to a byte offset. The column may sit
// one past the last byte of the line.
func (b *Buffer) PointToOffset(line, col int) (uint32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetLocked(line, col)
}

func (b *Buffer) offsetLocked(line, col int) (uint32, error) {
	if line < 0 || line >= len(b.starts) || col < 0 {
		return 0, fmt.Errorf("%w: %d:%d", ErrPositionOutOfRange, line, col)
	}
	start := b.starts[line]
	if uint32(col) > b.lineEndLocked(line)-start {
		return 0, fmt.Errorf("%w: %d:%d", ErrPositionOutOfRange, line, col)
	}
	return start + uint32(col), nil
}

func (b *Buffer) lineEndLocked(line int) uint32 {
	if line+1 < len(b.starts) {
		return b.starts[line+1] - 1
	}
	return uint32(len(b.content))
}

// Insert splices text in at (line, col) and reports the edit plus the
// position just past the inserted text.
func (b *Buffer) Insert(line, col int, text []byte) (highlight.Edit, Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	off, err := b.offsetLocked(line, col)
	if err != nil {
		return highlight.Edit{}, Position{}, err
	}
	text = normalizeLineEndings(text)

	content := make([]byte, 0, len(b.content)+len(text))
	content = append(content, b.content[:off]...)
	content = append(content, text...)
	content = append(content, b.content[off:]...)

	end := advance(Position{Line: line, Col: col}, text)
	edit := highlight.Edit{
		StartByte:   off,
		OldEndByte:  off,
		NewEndByte:  off + uint32(len(text)),
		StartPoint:  highlight.Point{Row: uint32(line), Column: uint32(col)},
		OldEndPoint: highlight.Point{Row: uint32(line), Column: uint32(col)},
		NewEndPoint: highlight.Point{Row: uint32(end.Line), Column: uint32(end.Col)},
	}

	b.content = content
	b.starts = lineStarts(content)
	return edit, end, nil
}

// advance walks text from p, tracking line breaks.
func advance(p Position, text []byte) Position {
	n := bytes.Count(text, []byte("\n"))
	if n == 0 {
		return Position{Line: p.Line, Col: p.Col + len(text)}
	}
	last := bytes.LastIndexByte(text, '\n')
	return Position{Line: p.Line + n, Col: len(text) - last - 1}
}

// Delete removes the range (startLine, startCol) to (endLine, endCol),
// end exclusive. Deleting a line break is expressed as a range ending at
// column 0 of the following line.
func (b *Buffer) Delete(startLine, startCol, endLine, endCol int) (highlight.Edit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	startOff, err := b.offsetLocked(startLine, startCol)
	if err != nil {
		return highlight.Edit{}, err
	}
	endOff, err := b.offsetLocked(endLine, endCol)
	if err != nil {
		return highlight.Edit{}, err
	}
	if endOff < startOff {
		return highlight.Edit{}, fmt.Errorf("%w: (%d:%d)-(%d:%d)", ErrRangeInvalid, startLine, startCol, endLine, endCol)
	}

	content := make([]byte, 0, len(b.content)-int(endOff-startOff))
	content = append(content, b.content[:startOff]...)
	content = append(content, b.content[endOff:]...)

	edit := highlight.Edit{
		StartByte:   startOff,
		OldEndByte:  endOff,
		NewEndByte:  startOff,
		StartPoint:  highlight.Point{Row: uint32(startLine), Column: uint32(startCol)},
		OldEndPoint: highlight.Point{Row: uint32(endLine), Column: uint32(endCol)},
		NewEndPoint: highlight.Point{Row: uint32(startLine), Column: uint32(startCol)},
	}

	b.content = content
	b.starts = lineStarts(content)
	return edit, nil
}
