// Package scheme maps capture names to styles. Schemes load from YAML
// files, compile into a dense palette of color slots, and can hot-reload
// through a file watcher.
package scheme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/stormlight/internal/styling"
)

// fileEntry is one capture's style definition as it appears on disk.
type fileEntry struct {
	Fg            string `yaml:"fg"`
	Bg            string `yaml:"bg"`
	Bold          bool   `yaml:"bold"`
	Italic        bool   `yaml:"italic"`
	Underline     bool   `yaml:"underline"`
	Strikethrough bool   `yaml:"strikethrough"`
}

type file struct {
	Name     string               `yaml:"name"`
	Default  fileEntry            `yaml:"default"`
	Captures map[string]fileEntry `yaml:"captures"`
}

// Scheme is a compiled color scheme. Styles reference colors through
// palette slots so spans stay small; the renderer resolves slots back to
// concrete colors at draw time. Slot 0 is the scheme default.
type Scheme struct {
	Name string

	palette []styling.Color
	slots   map[string]styling.ColorID
	styles  map[string]styling.Style

	defStyle styling.Style
	defFg    styling.Color
	defBg    styling.Color
}

// Load reads and compiles a scheme file. A missing name falls back to the
// file's base name.
func Load(path string) (*Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scheme file %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scheme file %s: %w", path, err)
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}

// Parse compiles scheme YAML. Unknown color strings fail fast.
func Parse(data []byte) (*Scheme, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scheme: %w", err)
	}
	return compile(f)
}

func compile(f file) (*Scheme, error) {
	s := &Scheme{
		Name:    f.Name,
		palette: []styling.Color{{}},
		slots:   make(map[string]styling.ColorID),
		styles:  make(map[string]styling.Style, len(f.Captures)),
	}

	var err error
	if f.Default.Fg != "" {
		if s.defFg, err = styling.ColorFromHex(f.Default.Fg); err != nil {
			return nil, fmt.Errorf("default fg: %w", err)
		}
	}
	if f.Default.Bg != "" {
		if s.defBg, err = styling.ColorFromHex(f.Default.Bg); err != nil {
			return nil, fmt.Errorf("default bg: %w", err)
		}
	}
	s.defStyle = styling.Style{Attributes: entryAttrs(f.Default)}

	for name, e := range f.Captures {
		st, err := s.entryStyle(e)
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", name, err)
		}
		s.styles[name] = st
	}
	return s, nil
}

func entryAttrs(e fileEntry) styling.Attribute {
	attrs := styling.AttrNone
	if e.Bold {
		attrs = attrs.With(styling.AttrBold)
	}
	if e.Italic {
		attrs = attrs.With(styling.AttrItalic)
	}
	if e.Underline {
		attrs = attrs.With(styling.AttrUnderline)
	}
	if e.Strikethrough {
		attrs = attrs.With(styling.AttrStrikethrough)
	}
	return attrs
}

func (s *Scheme) entryStyle(e fileEntry) (styling.Style, error) {
	st := styling.Style{Attributes: entryAttrs(e)}
	if e.Fg != "" {
		id, err := s.slot(e.Fg)
		if err != nil {
			return st, fmt.Errorf("fg: %w", err)
		}
		st.Foreground = id
	}
	if e.Bg != "" {
		id, err := s.slot(e.Bg)
		if err != nil {
			return st, fmt.Errorf("bg: %w", err)
		}
		st.Background = id
	}
	return st, nil
}

// slot interns a color string into the palette.
func (s *Scheme) slot(hex string) (styling.ColorID, error) {
	if id, ok := s.slots[hex]; ok {
		return id, nil
	}
	c, err := styling.ColorFromHex(hex)
	if err != nil {
		return 0, err
	}
	if len(s.palette) > int(^styling.ColorID(0)) {
		return 0, fmt.Errorf("palette full, %d colors max", int(^styling.ColorID(0))+1)
	}
	id := styling.ColorID(len(s.palette))
	s.palette = append(s.palette, c)
	s.slots[hex] = id
	return id, nil
}

// StyleFor resolves a capture name. Dotted names fall back to their first
// segment, then to the scheme default.
func (s *Scheme) StyleFor(name string) styling.Style {
	if st, ok := s.styles[name]; ok {
		return st
	}
	if head, _, found := strings.Cut(name, "."); found {
		if st, ok := s.styles[head]; ok {
			return st
		}
	}
	return s.defStyle
}

// Foreground resolves a foreground slot. Slot 0 is the scheme's default
// foreground, which may itself be unset.
func (s *Scheme) Foreground(id styling.ColorID) styling.Color {
	if id == 0 {
		return s.defFg
	}
	if int(id) < len(s.palette) {
		return s.palette[id]
	}
	return styling.Color{}
}

// Background resolves a background slot.
func (s *Scheme) Background(id styling.ColorID) styling.Color {
	if id == 0 {
		return s.defBg
	}
	if int(id) < len(s.palette) {
		return s.palette[id]
	}
	return styling.Color{}
}

// DefaultStyle returns the scheme's base style.
func (s *Scheme) DefaultStyle() styling.Style { return s.defStyle }

// Compile builds a dense capture-index table for one source's namespace.
func (s *Scheme) Compile(names []string) *Mapper {
	styles := make([]styling.Style, len(names))
	for i, name := range names {
		styles[i] = s.StyleFor(name)
	}
	return &Mapper{styles: styles, fallback: s.defStyle}
}

// Mapper resolves capture indexes to styles. It is immutable; swapping
// schemes builds a new one.
type Mapper struct {
	styles   []styling.Style
	fallback styling.Style
}

// StyleFor returns the style for a capture index.
func (m *Mapper) StyleFor(index uint16) styling.Style {
	if int(index) < len(m.styles) {
		return m.styles[index]
	}
	return m.fallback
}
