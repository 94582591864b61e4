package styling

import (
	"testing"
)

func TestAttributeHasWithWithout(t *testing.T) {
	a := AttrNone
	if a.Has(AttrBold) {
		t.Error("empty attribute set should not have bold")
	}

	a = a.With(AttrBold).With(AttrItalic)
	if !a.Has(AttrBold) {
		t.Error("expected bold after With")
	}
	if !a.Has(AttrItalic) {
		t.Error("expected italic after With")
	}

	a = a.Without(AttrBold)
	if a.Has(AttrBold) {
		t.Error("bold should be removed after Without")
	}
	if !a.Has(AttrItalic) {
		t.Error("italic should survive removing bold")
	}
}

func TestAttributeFlagsDistinct(t *testing.T) {
	flags := []Attribute{AttrBold, AttrItalic, AttrUnderline, AttrStrikethrough}
	seen := map[Attribute]bool{}
	for _, f := range flags {
		if f == 0 {
			t.Errorf("attribute flag %d is zero", f)
		}
		if seen[f] {
			t.Errorf("attribute flag %d reused", f)
		}
		seen[f] = true
	}
}

func TestColorZeroValueUnset(t *testing.T) {
	var c Color
	if c.IsSet() {
		t.Error("zero color should not be set")
	}
	if !c.Equals(Color{}) {
		t.Error("zero colors should be equal")
	}
}

func TestColorConstructors(t *testing.T) {
	rgb := ColorFromRGB(255, 128, 64)
	if !rgb.IsSet() || rgb.Indexed || rgb.Default || rgb.Ref {
		t.Errorf("ColorFromRGB produced wrong mode: %+v", rgb)
	}
	if rgb.R != 255 || rgb.G != 128 || rgb.B != 64 {
		t.Errorf("ColorFromRGB = (%d,%d,%d), want (255,128,64)", rgb.R, rgb.G, rgb.B)
	}

	idx := ColorFromIndex(42)
	if !idx.Indexed || idx.R != 42 {
		t.Errorf("ColorFromIndex produced %+v", idx)
	}

	ref := ColorRef(7)
	if !ref.Ref || ref.SchemeSlot() != 7 {
		t.Errorf("ColorRef produced %+v", ref)
	}

	if !ColorDefault.IsDefault() {
		t.Error("ColorDefault should be default")
	}
}

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b uint8
		wantErr bool
	}{
		{"#FF8040", 255, 128, 64, false},
		{"#ff8040", 255, 128, 64, false},
		{"FF8040", 255, 128, 64, false},
		{"#FFF", 255, 255, 255, false}, // Short form
		{"#000", 0, 0, 0, false},
		{"invalid", 0, 0, 0, true},
		{"#GGG", 0, 0, 0, true},
	}

	for _, tt := range tests {
		c, err := ColorFromHex(tt.hex)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ColorFromHex(%q) expected error, got nil", tt.hex)
			}
			continue
		}
		if err != nil {
			t.Errorf("ColorFromHex(%q) unexpected error: %v", tt.hex, err)
			continue
		}
		if c.R != tt.r || c.G != tt.g || c.B != tt.b {
			t.Errorf("ColorFromHex(%q) = (%d,%d,%d), want (%d,%d,%d)",
				tt.hex, c.R, c.G, c.B, tt.r, tt.g, tt.b)
		}
		if !c.IsSet() {
			t.Errorf("ColorFromHex(%q) should produce a set color", tt.hex)
		}
	}
}

func TestColorEquals(t *testing.T) {
	if !ColorFromRGB(1, 2, 3).Equals(ColorFromRGB(1, 2, 3)) {
		t.Error("identical RGB colors should be equal")
	}
	if ColorFromRGB(1, 2, 3).Equals(ColorFromRGB(1, 2, 4)) {
		t.Error("different RGB colors should not be equal")
	}
	if ColorFromIndex(5).Equals(ColorFromRGB(5, 0, 0)) {
		t.Error("indexed and RGB colors should not be equal")
	}
	if ColorRef(5).Equals(ColorFromIndex(5)) {
		t.Error("ref and indexed colors should not be equal")
	}
	if ColorFromRGB(0, 0, 0).Equals(Color{}) {
		t.Error("explicit black should not equal the unset color")
	}
}

func TestStyleBuilders(t *testing.T) {
	s := NewStyle(3).WithBackground(1).Bold().Italic()

	if s.Foreground != 3 {
		t.Errorf("Foreground = %d, want 3", s.Foreground)
	}
	if s.Background != 1 {
		t.Errorf("Background = %d, want 1", s.Background)
	}
	if !s.Attributes.Has(AttrBold) || !s.Attributes.Has(AttrItalic) {
		t.Errorf("Attributes = %v, want bold|italic", s.Attributes)
	}

	// Builders are value-returning; the original is untouched.
	base := NewStyle(3)
	_ = base.Bold()
	if base.Attributes.Has(AttrBold) {
		t.Error("Bold() mutated the receiver")
	}
}

func TestStyleIsDefault(t *testing.T) {
	if !DefaultStyle().IsDefault() {
		t.Error("DefaultStyle should be default")
	}
	if NewStyle(1).IsDefault() {
		t.Error("styled text should not be default")
	}
	s := DefaultStyle()
	s.FgOverride = ColorFromRGB(1, 2, 3)
	if s.IsDefault() {
		t.Error("a style with an override should not be default")
	}
}
