package session

import (
	"errors"
	"testing"

	"github.com/dshills/stormlight/internal/highlight"
)

func TestBufferLineIndex(t *testing.T) {
	b := NewBuffer([]byte("abc\ndef\n"))

	if got := b.LineCount(); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
	tests := []struct {
		line       int
		start, end uint32
		text       string
	}{
		{0, 0, 3, "abc"},
		{1, 4, 7, "def"},
		{2, 8, 8, ""},
	}
	for _, tt := range tests {
		start, end, ok := b.LineRange(tt.line)
		if !ok {
			t.Errorf("line %d: expected ok", tt.line)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("line %d: expected range [%d, %d), got [%d, %d)", tt.line, tt.start, tt.end, start, end)
		}
		if got := b.LineText(tt.line); got != tt.text {
			t.Errorf("line %d: expected text %q, got %q", tt.line, tt.text, got)
		}
	}
	if _, _, ok := b.LineRange(3); ok {
		t.Error("expected line 3 out of range")
	}
}

func TestBufferEmpty(t *testing.T) {
	b := NewBuffer(nil)
	if got := b.LineCount(); got != 1 {
		t.Errorf("expected 1 line, got %d", got)
	}
	start, end, ok := b.LineRange(0)
	if !ok || start != 0 || end != 0 {
		t.Errorf("expected empty range [0, 0), got [%d, %d) ok=%v", start, end, ok)
	}
}

func TestBufferNormalizesLineEndings(t *testing.T) {
	b := NewBuffer([]byte("a\r\nb\rc"))
	if got := string(b.Text()); got != "a\nb\nc" {
		t.Errorf("expected normalized text, got %q", got)
	}
	if got := b.LineCount(); got != 3 {
		t.Errorf("expected 3 lines, got %d", got)
	}
}

func TestBufferInsertSingleLine(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))

	edit, end, err := b.Insert(0, 2, []byte("XY"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := string(b.Text()); got != "abXYcdef" {
		t.Errorf("expected abXYcdef, got %q", got)
	}
	want := highlight.Edit{
		StartByte:   2,
		OldEndByte:  2,
		NewEndByte:  4,
		StartPoint:  highlight.Point{Row: 0, Column: 2},
		OldEndPoint: highlight.Point{Row: 0, Column: 2},
		NewEndPoint: highlight.Point{Row: 0, Column: 4},
	}
	if edit != want {
		t.Errorf("expected edit %+v, got %+v", want, edit)
	}
	if end != (Position{Line: 0, Col: 4}) {
		t.Errorf("expected end 0:4, got %d:%d", end.Line, end.Col)
	}
}

func TestBufferInsertMultiLine(t *testing.T) {
	b := NewBuffer([]byte("xxxx\nyyyy"))

	edit, end, err := b.Insert(1, 2, []byte("a\nbb"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := string(b.Text()); got != "xxxx\nyya\nbbyy" {
		t.Errorf("expected xxxx\\nyya\\nbbyy, got %q", got)
	}
	if end != (Position{Line: 2, Col: 2}) {
		t.Errorf("expected end 2:2, got %d:%d", end.Line, end.Col)
	}
	if edit.NewEndPoint != (highlight.Point{Row: 2, Column: 2}) {
		t.Errorf("expected new end point 2:2, got %+v", edit.NewEndPoint)
	}
	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", b.LineCount())
	}
}

func TestBufferInsertAtLineEnd(t *testing.T) {
	b := NewBuffer([]byte("ab\ncd"))
	if _, _, err := b.Insert(0, 2, []byte("!")); err != nil {
		t.Fatalf("insert at line end: %v", err)
	}
	if _, _, err := b.Insert(1, 2, []byte("?")); err != nil {
		t.Fatalf("insert at EOF: %v", err)
	}
	if got := string(b.Text()); got != "ab!\ncd?" {
		t.Errorf("expected ab!\\ncd?, got %q", got)
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := NewBuffer([]byte("abc"))
	if _, _, err := b.Insert(5, 0, []byte("x")); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("expected ErrPositionOutOfRange for bad line, got %v", err)
	}
	if _, _, err := b.Insert(0, 4, []byte("x")); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("expected ErrPositionOutOfRange for bad column, got %v", err)
	}
}

func TestBufferDeleteWithinLine(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))

	edit, err := b.Delete(0, 1, 0, 3)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := string(b.Text()); got != "adef" {
		t.Errorf("expected adef, got %q", got)
	}
	want := highlight.Edit{
		StartByte:   1,
		OldEndByte:  3,
		NewEndByte:  1,
		StartPoint:  highlight.Point{Row: 0, Column: 1},
		OldEndPoint: highlight.Point{Row: 0, Column: 3},
		NewEndPoint: highlight.Point{Row: 0, Column: 1},
	}
	if edit != want {
		t.Errorf("expected edit %+v, got %+v", want, edit)
	}
}

func TestBufferDeleteAcrossLines(t *testing.T) {
	b := NewBuffer([]byte("abc\ndef"))

	edit, err := b.Delete(0, 2, 1, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := string(b.Text()); got != "abef" {
		t.Errorf("expected abef, got %q", got)
	}
	if edit.StartByte != 2 || edit.OldEndByte != 5 || edit.NewEndByte != 2 {
		t.Errorf("expected bytes 2/5/2, got %d/%d/%d", edit.StartByte, edit.OldEndByte, edit.NewEndByte)
	}
	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
}

func TestBufferDeleteNewline(t *testing.T) {
	b := NewBuffer([]byte("abc\ndef"))
	if _, err := b.Delete(0, 3, 1, 0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := string(b.Text()); got != "abcdef" {
		t.Errorf("expected abcdef, got %q", got)
	}
}

func TestBufferDeleteInvalidRange(t *testing.T) {
	b := NewBuffer([]byte("abc\ndef"))
	if _, err := b.Delete(1, 0, 0, 0); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
	if _, err := b.Delete(0, 0, 3, 0); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("expected ErrPositionOutOfRange, got %v", err)
	}
}

func TestBufferSnapshotsStableAcrossEdits(t *testing.T) {
	b := NewBuffer([]byte("abc"))
	before := b.Text()

	if _, _, err := b.Insert(0, 0, []byte("XY")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := string(before); got != "abc" {
		t.Errorf("snapshot mutated by later edit: %q", got)
	}
	if got := string(b.Text()); got != "XYabc" {
		t.Errorf("expected XYabc, got %q", got)
	}
}
