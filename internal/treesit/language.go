// Package treesit adapts tree-sitter parsing to the highlight capture
// boundary. Each source owns one parser and one compiled highlight query;
// edits reparse incrementally against the previous tree.
package treesit

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrUnknownLanguage reports a language name with no registered grammar.
var ErrUnknownLanguage = fmt.Errorf("treesit: unknown language")

// Language bundles a grammar with its highlight query.
type Language struct {
	Name  string
	lang  *sitter.Language
	query string
}

var registry = map[string]Language{
	"go":         {Name: "go", lang: golang.GetLanguage(), query: goQuery},
	"python":     {Name: "python", lang: python.GetLanguage(), query: pythonQuery},
	"javascript": {Name: "javascript", lang: javascript.GetLanguage(), query: javascriptQuery},
}

// Lookup resolves a language by name.
func Lookup(name string) (Language, error) {
	lang, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return lang, nil
}

// Detect resolves a language from a file path's extension.
func Detect(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".go":
		return Lookup("go")
	case ".py", ".pyi":
		return Lookup("python")
	case ".js", ".mjs", ".cjs", ".jsx":
		return Lookup("javascript")
	default:
		return Language{}, fmt.Errorf("%w: no grammar for %q files", ErrUnknownLanguage, ext)
	}
}

// Names returns the registered language names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
