// Package lexical is the fallback capture source for documents without a
// tree-sitter grammar. It runs a chroma lexer over the whole document and
// maps token categories onto the same capture namespace the grammar-backed
// source uses, so one scheme styles both.
//
// Lexers carry no incremental state: every edit retokenizes the document.
package lexical

import (
	"context"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/stormlight/internal/highlight"
)

// Capture indexes, aligned with captureNames.
const (
	capComment uint16 = iota
	capConstant
	capEscape
	capFunction
	capKeyword
	capNamespace
	capNumber
	capOperator
	capProperty
	capString
	capType
)

var captureNames = []string{
	"comment",
	"constant",
	"escape",
	"function",
	"keyword",
	"namespace",
	"number",
	"operator",
	"property",
	"string",
	"type",
}

// Source tokenizes one document with a chroma lexer. It implements
// highlight.CaptureSource; the guarded tree serializes access.
type Source struct {
	lexer chroma.Lexer
	name  string
	caps  []highlight.Capture
}

// NewSource resolves a lexer by name. Unknown names fail fast.
func NewSource(name string) (*Source, error) {
	lexer := lexers.Get(name)
	if lexer == nil {
		return nil, fmt.Errorf("lexical: no lexer named %q", name)
	}
	return newSource(lexer), nil
}

// DetectSource picks a lexer from the file path, then from the content,
// then falls back to plaintext. It never fails; plaintext simply yields no
// captures.
func DetectSource(path string, sample []byte) *Source {
	lexer := lexers.Match(path)
	if lexer == nil && len(sample) > 0 {
		lexer = lexers.Analyse(string(sample))
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return newSource(lexer)
}

func newSource(lexer chroma.Lexer) *Source {
	return &Source{
		lexer: chroma.Coalesce(lexer),
		name:  lexer.Config().Name,
	}
}

// Name returns the lexer's display name.
func (s *Source) Name() string { return s.name }

// Init tokenizes text from scratch.
func (s *Source) Init(_ context.Context, text []byte) error {
	return s.tokenize(text)
}

// Edit retokenizes the post-edit document. The edit ranges are ignored;
// lexing has no tree to patch.
func (s *Source) Edit(_ context.Context, _ highlight.Edit, text []byte) error {
	return s.tokenize(text)
}

func (s *Source) tokenize(text []byte) error {
	tokens, err := chroma.Tokenise(s.lexer, nil, string(text))
	if err != nil {
		return fmt.Errorf("lexical: tokenize with %s: %w", s.name, err)
	}

	caps := s.caps[:0]
	var off uint32
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		n := uint32(len(tok.Value))
		if n == 0 {
			continue
		}
		if index, ok := classify(tok.Type); ok {
			if m := len(caps); m > 0 && caps[m-1].EndByte == off && caps[m-1].Index == index {
				caps[m-1].EndByte = off + n
			} else {
				caps = append(caps, highlight.Capture{StartByte: off, EndByte: off + n, Index: index})
			}
		}
		off += n
	}
	s.caps = caps
	return nil
}

// Captures returns the captures overlapping [startByte, endByte).
func (s *Source) Captures(startByte, endByte uint32) ([]highlight.Capture, error) {
	return highlight.CapturesIn(s.caps, startByte, endByte), nil
}

// CaptureNames returns the fixed capture namespace.
func (s *Source) CaptureNames() []string { return captureNames }

// Release drops the token state. Lexers hold no external resources.
func (s *Source) Release() { s.caps = nil }

// classify maps a chroma token type onto the capture namespace. Token
// types outside the table stay unstyled.
func classify(t chroma.TokenType) (uint16, bool) {
	switch {
	case t == chroma.KeywordConstant:
		return capConstant, true
	case t.InCategory(chroma.Keyword):
		return capKeyword, true
	case t == chroma.LiteralStringEscape:
		return capEscape, true
	case t.InSubCategory(chroma.LiteralString):
		return capString, true
	case t.InSubCategory(chroma.LiteralNumber):
		return capNumber, true
	case t.InCategory(chroma.Comment):
		return capComment, true
	case t.InCategory(chroma.Operator):
		return capOperator, true
	case t == chroma.NameFunction, t == chroma.NameFunctionMagic,
		t == chroma.NameBuiltin, t == chroma.NameDecorator:
		return capFunction, true
	case t == chroma.NameClass, t == chroma.NameTag:
		return capType, true
	case t == chroma.NameConstant:
		return capConstant, true
	case t == chroma.NameNamespace:
		return capNamespace, true
	case t == chroma.NameAttribute, t == chroma.NameProperty:
		return capProperty, true
	default:
		return 0, false
	}
}
