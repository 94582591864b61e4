// Package patch maintains sparse, line-scoped style overrides layered above
// base syntax spans. Patches live in a store kept fully sorted by
// (StartLine, StartCol, EndLine, EndCol) and are remapped in place as the
// underlying text is edited, so a producer (for example a semantic-token
// pipeline) can refresh them at its own pace without racing the editing
// loop.
package patch

import (
	"fmt"

	"github.com/dshills/stormlight/internal/styling"
)

// Patch is a column interval on one line carrying optional style overrides.
// Attribute overrides are encoded as set/clear masks: a bit in SetAttrs
// forces the attribute on, a bit in ClearAttrs forces it off, and a bit in
// neither leaves the base value alone. Fg and Bg override the base colors
// when set. EndCol is exclusive.
type Patch struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int

	SetAttrs   styling.Attribute
	ClearAttrs styling.Attribute
	Fg         styling.Color
	Bg         styling.Color
}

// New creates a patch covering [startCol, endCol) on one line with no
// overrides set.
func New(line, startCol, endCol int) Patch {
	return Patch{StartLine: line, StartCol: startCol, EndLine: line, EndCol: endCol}
}

// WithBold returns a copy forcing bold on or off.
func (p Patch) WithBold(on bool) Patch {
	return p.withAttr(styling.AttrBold, on)
}

// WithItalic returns a copy forcing italic on or off.
func (p Patch) WithItalic(on bool) Patch {
	return p.withAttr(styling.AttrItalic, on)
}

// WithUnderline returns a copy forcing underline on or off.
func (p Patch) WithUnderline(on bool) Patch {
	return p.withAttr(styling.AttrUnderline, on)
}

// WithStrikethrough returns a copy forcing strikethrough on or off.
func (p Patch) WithStrikethrough(on bool) Patch {
	return p.withAttr(styling.AttrStrikethrough, on)
}

func (p Patch) withAttr(attr styling.Attribute, on bool) Patch {
	if on {
		p.SetAttrs = p.SetAttrs.With(attr)
		p.ClearAttrs = p.ClearAttrs.Without(attr)
	} else {
		p.ClearAttrs = p.ClearAttrs.With(attr)
		p.SetAttrs = p.SetAttrs.Without(attr)
	}
	return p
}

// WithForeground returns a copy overriding the foreground color.
func (p Patch) WithForeground(c styling.Color) Patch {
	p.Fg = c
	return p
}

// WithBackground returns a copy overriding the background color.
func (p Patch) WithBackground(c styling.Color) Patch {
	p.Bg = c
	return p
}

// CrossesLines returns true if the patch spans more than one line.
func (p Patch) CrossesLines() bool {
	return p.StartLine != p.EndLine
}

// Empty returns true if the patch covers no columns.
func (p Patch) Empty() bool {
	return !p.CrossesLines() && p.EndCol <= p.StartCol
}

// Noop returns true if applying the patch would change nothing.
func (p Patch) Noop() bool {
	return p.SetAttrs == 0 && p.ClearAttrs == 0 && !p.Fg.IsSet() && !p.Bg.IsSet()
}

// ApplyTo returns the style with this patch's overrides applied. Fields the
// patch does not set fall through to the base style. Color overrides land
// in the style's override channel so the renderer resolves them against the
// live scheme instead of a baked palette slot.
func (p Patch) ApplyTo(s styling.Style) styling.Style {
	s.Attributes = (s.Attributes | p.SetAttrs) &^ p.ClearAttrs
	if p.Fg.IsSet() {
		s.FgOverride = p.Fg
	}
	if p.Bg.IsSet() {
		s.BgOverride = p.Bg
	}
	return s
}

// String returns a compact representation for logs and test failures.
func (p Patch) String() string {
	return fmt.Sprintf("patch(%d:%d-%d:%d set=%v clear=%v fg=%v bg=%v)",
		p.StartLine, p.StartCol, p.EndLine, p.EndCol, p.SetAttrs, p.ClearAttrs, p.Fg, p.Bg)
}

// compare orders patches by (StartLine, StartCol, EndLine, EndCol).
func compare(a, b Patch) int {
	if a.StartLine != b.StartLine {
		return a.StartLine - b.StartLine
	}
	if a.StartCol != b.StartCol {
		return a.StartCol - b.StartCol
	}
	if a.EndLine != b.EndLine {
		return a.EndLine - b.EndLine
	}
	return a.EndCol - b.EndCol
}
