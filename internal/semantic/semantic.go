// Package semantic turns semantic token payloads from an external analyzer
// into style patches. Payloads use the LSP wire shape: a legend naming
// token types and modifiers, and a flat "data" array of five-value groups,
// each encoded relative to the token before it.
package semantic

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/stormlight/internal/scheme"
	"github.com/dshills/stormlight/internal/styling"
	"github.com/dshills/stormlight/internal/styling/patch"
)

// ErrBadPayload reports a payload that does not follow the wire shape.
var ErrBadPayload = errors.New("semantic: malformed token payload")

// Legend names the token type and modifier indexes a payload refers to.
type Legend struct {
	TokenTypes     []string
	TokenModifiers []string
}

// DecodeLegend reads a legend payload: {"tokenTypes": [...],
// "tokenModifiers": [...]}.
func DecodeLegend(payload []byte) (Legend, error) {
	if !gjson.ValidBytes(payload) {
		return Legend{}, fmt.Errorf("%w: invalid JSON", ErrBadPayload)
	}
	types := gjson.GetBytes(payload, "tokenTypes")
	if !types.IsArray() {
		return Legend{}, fmt.Errorf("%w: missing tokenTypes", ErrBadPayload)
	}

	var l Legend
	for _, v := range types.Array() {
		l.TokenTypes = append(l.TokenTypes, v.String())
	}
	for _, v := range gjson.GetBytes(payload, "tokenModifiers").Array() {
		l.TokenModifiers = append(l.TokenModifiers, v.String())
	}
	return l, nil
}

// Token is one decoded semantic token. Tokens never span lines.
type Token struct {
	Line      int
	StartChar int
	Length    int
	Type      string
	Modifiers []string
}

// DecodeTokens expands a token payload's delta-encoded "data" array into
// absolute tokens. Tokens with a type index outside the legend are dropped;
// a payload that breaks the wire shape is an error.
func DecodeTokens(l Legend, payload []byte) ([]Token, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrBadPayload)
	}
	data := gjson.GetBytes(payload, "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: missing data array", ErrBadPayload)
	}
	values := data.Array()
	if len(values)%5 != 0 {
		return nil, fmt.Errorf("%w: data length %d is not a multiple of 5", ErrBadPayload, len(values))
	}

	tokens := make([]Token, 0, len(values)/5)
	line, char := 0, 0
	for i := 0; i < len(values); i += 5 {
		group := [5]int{}
		for k := 0; k < 5; k++ {
			v := values[i+k]
			if v.Type != gjson.Number || v.Int() < 0 {
				return nil, fmt.Errorf("%w: data[%d] = %s", ErrBadPayload, i+k, v.Raw)
			}
			group[k] = int(v.Int())
		}

		deltaLine, deltaChar, length, typeIdx, modBits := group[0], group[1], group[2], group[3], group[4]
		line += deltaLine
		if deltaLine > 0 {
			char = deltaChar
		} else {
			char += deltaChar
		}
		if length == 0 {
			continue
		}
		if typeIdx >= len(l.TokenTypes) {
			continue
		}

		tokens = append(tokens, Token{
			Line:      line,
			StartChar: char,
			Length:    length,
			Type:      l.TokenTypes[typeIdx],
			Modifiers: modifierNames(l, modBits),
		})
	}
	return tokens, nil
}

func modifierNames(l Legend, bits int) []string {
	if bits == 0 {
		return nil
	}
	var names []string
	for i, name := range l.TokenModifiers {
		if bits&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return names
}

// Patches converts tokens into style patches. Token types resolve through
// the scheme like capture names do, so one scheme file drives every
// producer. Well-known modifiers add attributes: declaration and
// definition embolden, deprecated strikes through. Tokens that resolve to
// nothing produce no patch.
func Patches(sch *scheme.Scheme, tokens []Token) []patch.Patch {
	patches := make([]patch.Patch, 0, len(tokens))
	def := sch.DefaultStyle()
	for _, tok := range tokens {
		style := sch.StyleFor(tok.Type)
		p := patch.New(tok.Line, tok.StartChar, tok.StartChar+tok.Length)

		if style != def {
			if style.Foreground != 0 {
				p = p.WithForeground(sch.Foreground(style.Foreground))
			}
			if style.Background != 0 {
				p = p.WithBackground(sch.Background(style.Background))
			}
			if style.Attributes.Has(styling.AttrBold) {
				p = p.WithBold(true)
			}
			if style.Attributes.Has(styling.AttrItalic) {
				p = p.WithItalic(true)
			}
			if style.Attributes.Has(styling.AttrUnderline) {
				p = p.WithUnderline(true)
			}
			if style.Attributes.Has(styling.AttrStrikethrough) {
				p = p.WithStrikethrough(true)
			}
		}
		for _, mod := range tok.Modifiers {
			switch mod {
			case "declaration", "definition":
				p = p.WithBold(true)
			case "deprecated":
				p = p.WithStrikethrough(true)
			}
		}

		if p.Empty() || p.Noop() {
			continue
		}
		patches = append(patches, p)
	}
	return patches
}
