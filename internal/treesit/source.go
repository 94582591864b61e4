package treesit

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/stormlight/internal/highlight"
)

// Source parses one document with tree-sitter and serves its highlight
// captures. Captures for the whole document are refreshed after every
// parse and kept sorted, so range queries are two binary searches.
//
// Source is not safe for concurrent use; the guarded tree serializes it.
type Source struct {
	lang   Language
	parser *sitter.Parser
	query  *sitter.Query
	names  []string
	tree   *sitter.Tree
	caps   []highlight.Capture
}

// NewSource compiles the language's highlight query and prepares a parser.
// Query compilation failures are configuration errors and fail fast.
func NewSource(lang Language) (*Source, error) {
	if lang.lang == nil {
		return nil, fmt.Errorf("%w: %q has no grammar", ErrUnknownLanguage, lang.Name)
	}
	query, err := sitter.NewQuery([]byte(lang.query), lang.lang)
	if err != nil {
		return nil, fmt.Errorf("treesit: compile %s highlight query: %w", lang.Name, err)
	}

	names := make([]string, query.CaptureCount())
	for i := range names {
		names[i] = query.CaptureNameForId(uint32(i))
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang.lang)

	return &Source{
		lang:   lang,
		parser: parser,
		query:  query,
		names:  names,
	}, nil
}

// Language returns the source's language name.
func (s *Source) Language() string { return s.lang.Name }

// Init parses text from scratch, replacing any previous tree.
func (s *Source) Init(ctx context.Context, text []byte) error {
	tree, err := s.parser.ParseCtx(ctx, nil, text)
	if err != nil {
		return fmt.Errorf("treesit: parse %s: %w", s.lang.Name, err)
	}
	if s.tree != nil {
		s.tree.Close()
	}
	s.tree = tree
	s.refresh(text)
	return nil
}

// Edit applies an incremental edit and reparses against the new text.
func (s *Source) Edit(ctx context.Context, edit highlight.Edit, text []byte) error {
	if s.tree == nil {
		return s.Init(ctx, text)
	}
	s.tree.Edit(sitter.EditInput{
		StartIndex:  edit.StartByte,
		OldEndIndex: edit.OldEndByte,
		NewEndIndex: edit.NewEndByte,
		StartPoint:  sitter.Point{Row: edit.StartPoint.Row, Column: edit.StartPoint.Column},
		OldEndPoint: sitter.Point{Row: edit.OldEndPoint.Row, Column: edit.OldEndPoint.Column},
		NewEndPoint: sitter.Point{Row: edit.NewEndPoint.Row, Column: edit.NewEndPoint.Column},
	})
	tree, err := s.parser.ParseCtx(ctx, s.tree, text)
	if err != nil {
		return fmt.Errorf("treesit: reparse %s: %w", s.lang.Name, err)
	}
	s.tree.Close()
	s.tree = tree
	s.refresh(text)
	return nil
}

// refresh reruns the highlight query over the whole tree and rebuilds the
// sorted capture slice.
func (s *Source) refresh(text []byte) {
	raw := s.caps[:0]

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(s.query, s.tree.RootNode())
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, text)
		for _, capture := range match.Captures {
			start, end := capture.Node.StartByte(), capture.Node.EndByte()
			if end <= start {
				continue
			}
			raw = append(raw, highlight.Capture{
				StartByte: start,
				EndByte:   end,
				Index:     uint16(capture.Index),
			})
		}
	}

	s.caps = flatten(raw)
}

// Captures returns the captures overlapping [startByte, endByte).
func (s *Source) Captures(startByte, endByte uint32) ([]highlight.Capture, error) {
	return highlight.CapturesIn(s.caps, startByte, endByte), nil
}

// CaptureNames returns the query's capture names, indexed by capture index.
func (s *Source) CaptureNames() []string { return s.names }

// Release frees the tree and query.
func (s *Source) Release() {
	if s.tree != nil {
		s.tree.Close()
		s.tree = nil
	}
	if s.query != nil {
		s.query.Close()
		s.query = nil
	}
	s.caps = nil
}

// flatten turns raw query captures, which may nest and overlap, into a
// sorted non-overlapping sequence. A capture nested inside another wins for
// the bytes it covers and the outer capture resumes after it; for identical
// ranges the later capture wins.
func flatten(caps []highlight.Capture) []highlight.Capture {
	if len(caps) == 0 {
		return caps
	}
	sort.SliceStable(caps, func(i, j int) bool {
		if caps[i].StartByte != caps[j].StartByte {
			return caps[i].StartByte < caps[j].StartByte
		}
		return caps[i].EndByte > caps[j].EndByte
	})

	out := make([]highlight.Capture, 0, len(caps))
	emit := func(start, end uint32, index uint16) {
		if end <= start {
			return
		}
		if n := len(out); n > 0 && out[n-1].EndByte == start && out[n-1].Index == index {
			out[n-1].EndByte = end
			return
		}
		out = append(out, highlight.Capture{StartByte: start, EndByte: end, Index: index})
	}

	var stack []highlight.Capture
	var cursor uint32
	for _, c := range caps {
		for len(stack) > 0 && stack[len(stack)-1].EndByte <= c.StartByte {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.EndByte > cursor {
				emit(cursor, top.EndByte, top.Index)
				cursor = top.EndByte
			}
		}
		if c.StartByte > cursor {
			if len(stack) > 0 {
				emit(cursor, c.StartByte, stack[len(stack)-1].Index)
			}
			cursor = c.StartByte
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.StartByte == c.StartByte && top.EndByte == c.EndByte {
				stack[len(stack)-1] = c
				continue
			}
		}
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.EndByte > cursor {
			emit(cursor, top.EndByte, top.Index)
			cursor = top.EndByte
		}
	}
	return out
}
