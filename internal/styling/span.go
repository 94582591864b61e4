package styling

import "fmt"

// Span marks a style change at a column. A line's spans are a strictly
// increasing sequence of columns; consecutive spans define half-open
// [col_i, col_i+1) style intervals and the last span extends to the end of
// the line.
type Span struct {
	Column int
	Style  Style
}

// DefaultSpan returns a span starting the line in the default style.
func DefaultSpan() Span {
	return Span{Column: 0, Style: DefaultStyle()}
}

// Spans is the read surface a renderer samples while drawing. Lines are
// 0-indexed; queries outside [0, LineCount()) return an empty slice.
type Spans interface {
	// SpansForLine returns the style spans for one line in column order.
	SpansForLine(line int) []Span

	// LineCount returns the number of lines covered by this source.
	LineCount() int
}

// ViewportAware is implemented by span sources that tune caching and
// prefetch from the renderer's scroll position. The renderer calls
// OnViewportChanged on every frame or scroll tick; scrollDelta is positive
// when scrolling down, negative when scrolling up, zero when unknown.
type ViewportAware interface {
	Spans
	OnViewportChanged(firstVisible, lastVisible, scrollDelta int)
}

// StyleAt samples the style in effect at the given column. Columns before
// the first span take the default style.
func StyleAt(spans []Span, col int) Style {
	style := DefaultStyle()
	for _, sp := range spans {
		if sp.Column > col {
			break
		}
		style = sp.Style
	}
	return style
}

// ValidateLine checks the span sequence invariant: columns strictly
// increase, start at or after zero, and stay below limit when limit is
// positive. A violation means the producer is broken and the line's styling
// must not be trusted.
func ValidateLine(spans []Span, limit int) error {
	prev := -1
	for i, sp := range spans {
		if sp.Column < 0 {
			return fmt.Errorf("span %d: negative column %d", i, sp.Column)
		}
		if sp.Column <= prev {
			return fmt.Errorf("span %d: column %d not increasing (previous %d)", i, sp.Column, prev)
		}
		if limit > 0 && sp.Column >= limit {
			return fmt.Errorf("span %d: column %d out of bounds (limit %d)", i, sp.Column, limit)
		}
		prev = sp.Column
	}
	return nil
}
