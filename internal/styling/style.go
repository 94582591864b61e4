// Package styling provides the span and style data model shared by every
// styling producer and consumer. Capture sources build spans, the patch
// overlay rewrites them, and renderers sample them; all of them speak the
// types in this package.
package styling

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute represents text attributes (bold, italic, etc.).
type Attribute uint16

// Text attribute flags.
const (
	AttrNone          Attribute = 0
	AttrBold          Attribute = 1 << iota
	AttrItalic                  // Italic text
	AttrUnderline               // Underlined text
	AttrStrikethrough           // Strikethrough text
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// With returns a new attribute set with the given attribute added.
func (a Attribute) With(attr Attribute) Attribute {
	return a | attr
}

// Without returns a new attribute set with the given attribute removed.
func (a Attribute) Without(attr Attribute) Attribute {
	return a &^ attr
}

// ColorID is a slot in the active scheme's palette. Span styles carry
// palette slots rather than concrete colors so a scheme swap restyles the
// document without touching cached spans.
type ColorID uint8

// Color represents a color value. Supports true color (RGB), terminal
// palette colors, and symbolic scheme references resolved at draw time.
// The zero value means "no color set": schemes and patches rely on that to
// tell an explicit override apart from an untouched field.
type Color struct {
	R, G, B uint8
	// If Indexed is true, R contains the palette index (0-255).
	// G and B are ignored in indexed mode.
	Indexed bool
	// Default indicates this is the terminal's default color.
	Default bool
	// Ref indicates a symbolic reference: R contains a scheme palette
	// slot (ColorID) that the renderer resolves against the active
	// scheme when drawing.
	Ref bool
	// Set distinguishes a constructed color from the zero value.
	Set bool
}

// ColorDefault represents the terminal's default color.
var ColorDefault = Color{Default: true, Set: true}

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Set: true}
}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true, Set: true}
}

// ColorRef creates a symbolic reference to a scheme palette slot.
func ColorRef(id ColorID) Color {
	return Color{R: uint8(id), Ref: true, Set: true}
}

// ColorFromHex creates a color from a hex string such as "#ff8800" or "#f80".
func ColorFromHex(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")

	var parts [3]uint64
	switch len(hex) {
	case 3:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(string(hex[i])+string(hex[i]), 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color: %s", hex)
			}
			parts[i] = v
		}
	case 6:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color: %s", hex)
			}
			parts[i] = v
		}
	default:
		return Color{}, fmt.Errorf("invalid hex color length: %s", hex)
	}

	return Color{R: uint8(parts[0]), G: uint8(parts[1]), B: uint8(parts[2]), Set: true}, nil
}

// IsSet returns true if the color was explicitly set.
func (c Color) IsSet() bool {
	return c.Set
}

// IsDefault returns true if this is the terminal's default color.
func (c Color) IsDefault() bool {
	return c.Default
}

// SchemeSlot returns the referenced palette slot for symbolic colors.
func (c Color) SchemeSlot() ColorID {
	return ColorID(c.R)
}

// Equals returns true if two colors are equal.
func (c Color) Equals(other Color) bool {
	if c.Set != other.Set {
		return false
	}
	if !c.Set {
		return true
	}
	if c.Default != other.Default {
		return false
	}
	if c.Default {
		return true
	}
	if c.Indexed != other.Indexed || c.Ref != other.Ref {
		return false
	}
	if c.Indexed || c.Ref {
		return c.R == other.R
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// String returns a string representation of the color.
func (c Color) String() string {
	switch {
	case !c.Set:
		return "unset"
	case c.Default:
		return "default"
	case c.Ref:
		return fmt.Sprintf("ref(%d)", c.R)
	case c.Indexed:
		return fmt.Sprintf("idx(%d)", c.R)
	default:
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
}

// Style represents the visual style of a run of text. Foreground and
// Background are scheme palette slots; FgOverride and BgOverride carry
// patch-supplied colors that take precedence at draw time. Overrides stay
// separate from the palette slots so they survive scheme swaps and can
// themselves be symbolic.
type Style struct {
	Foreground ColorID
	Background ColorID
	Attributes Attribute
	FgOverride Color
	BgOverride Color
}

// DefaultStyle returns the default (plain text) style.
func DefaultStyle() Style {
	return Style{}
}

// NewStyle creates a style with the given foreground palette slot.
func NewStyle(fg ColorID) Style {
	return Style{Foreground: fg}
}

// WithForeground returns a new style with the given foreground slot.
func (s Style) WithForeground(fg ColorID) Style {
	s.Foreground = fg
	return s
}

// WithBackground returns a new style with the given background slot.
func (s Style) WithBackground(bg ColorID) Style {
	s.Background = bg
	return s
}

// WithAttributes returns a new style with the given attributes.
func (s Style) WithAttributes(attrs Attribute) Style {
	s.Attributes = attrs
	return s
}

// Bold returns a new style with the bold attribute added.
func (s Style) Bold() Style {
	s.Attributes |= AttrBold
	return s
}

// Italic returns a new style with the italic attribute added.
func (s Style) Italic() Style {
	s.Attributes |= AttrItalic
	return s
}

// Underline returns a new style with the underline attribute added.
func (s Style) Underline() Style {
	s.Attributes |= AttrUnderline
	return s
}

// Strikethrough returns a new style with the strikethrough attribute added.
func (s Style) Strikethrough() Style {
	s.Attributes |= AttrStrikethrough
	return s
}

// Equals returns true if two styles are identical.
func (s Style) Equals(other Style) bool {
	return s.Foreground == other.Foreground &&
		s.Background == other.Background &&
		s.Attributes == other.Attributes &&
		s.FgOverride.Equals(other.FgOverride) &&
		s.BgOverride.Equals(other.BgOverride)
}

// IsDefault returns true if this is the default style.
func (s Style) IsDefault() bool {
	return s.Equals(Style{})
}
