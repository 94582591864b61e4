// Package overlay composes a base span source with a sparse patch store at
// read time. Neither input is mutated: base spans are split at patch edges
// by synthesizing column-shifted copies, and patched regions carry the base
// style with the patch's overrides applied on top.
package overlay

import (
	"github.com/dshills/stormlight/internal/styling"
	"github.com/dshills/stormlight/internal/styling/patch"
)

// PatchedSpans merges patches onto base spans per line as it is read. It
// implements styling.ViewportAware, forwarding viewport hints to the base
// source when that source cares about them.
type PatchedSpans struct {
	base  styling.Spans
	store *patch.Store
}

// New creates a patched reader over base and store.
func New(base styling.Spans, store *patch.Store) *PatchedSpans {
	return &PatchedSpans{base: base, store: store}
}

// LineCount returns the base source's line count.
func (ps *PatchedSpans) LineCount() int {
	return ps.base.LineCount()
}

// OnViewportChanged forwards the viewport hint to the base source.
func (ps *PatchedSpans) OnViewportChanged(firstVisible, lastVisible, scrollDelta int) {
	if va, ok := ps.base.(styling.ViewportAware); ok {
		va.OnViewportChanged(firstVisible, lastVisible, scrollDelta)
	}
}

// SpansForLine returns the line's base spans with every patch on the line
// applied in store order. With no patches the base slice is returned
// untouched, without allocation. Applying in store order makes
// "last applied wins" the tie-break if patches ever overlap.
func (ps *PatchedSpans) SpansForLine(line int) []styling.Span {
	spans := ps.base.SpansForLine(line)
	patches := ps.store.PatchesOnLine(line)
	if len(patches) == 0 {
		return spans
	}
	for _, p := range patches {
		spans = applyPatch(spans, p)
	}
	return spans
}

// applyPatch overlays one patch onto a span sequence, returning a new
// sequence with strictly increasing columns. A patch outside the base span
// range is ignored; its store entry stays put until pruned or remapped.
func applyPatch(spans []styling.Span, p patch.Patch) []styling.Span {
	if len(spans) == 0 || p.Empty() {
		return spans
	}
	start := p.StartCol
	if first := spans[0].Column; start < first {
		start = first
	}
	if start >= p.EndCol {
		return spans
	}

	out := make([]styling.Span, 0, len(spans)+2)
	emit := func(col int, style styling.Style) {
		if n := len(out); n > 0 && out[n-1].Column == col {
			out[n-1].Style = style
			return
		}
		out = append(out, styling.Span{Column: col, Style: style})
	}

	cur := styling.DefaultStyle()
	i := 0
	for ; i < len(spans) && spans[i].Column < start; i++ {
		emit(spans[i].Column, spans[i].Style)
		cur = spans[i].Style
	}

	// The patched region starts here; base runs inside it keep their
	// style with the overrides applied.
	emit(start, p.ApplyTo(cur))
	for ; i < len(spans) && spans[i].Column < p.EndCol; i++ {
		cur = spans[i].Style
		emit(spans[i].Column, p.ApplyTo(cur))
	}

	// Restore the base style at the patch end unless a base span takes
	// over at exactly that column.
	if i >= len(spans) || spans[i].Column != p.EndCol {
		emit(p.EndCol, cur)
	}
	for ; i < len(spans); i++ {
		emit(spans[i].Column, spans[i].Style)
	}
	return out
}
