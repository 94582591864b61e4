package styling

import (
	"testing"
)

func TestStyleAt(t *testing.T) {
	a := NewStyle(1)
	b := NewStyle(2)
	spans := []Span{{Column: 0, Style: a}, {Column: 5, Style: b}}

	tests := []struct {
		col  int
		want Style
	}{
		{0, a},
		{4, a},
		{5, b},
		{100, b},
	}
	for _, tt := range tests {
		if got := StyleAt(spans, tt.col); !got.Equals(tt.want) {
			t.Errorf("StyleAt(col=%d) = %+v, want %+v", tt.col, got, tt.want)
		}
	}
}

func TestStyleAtBeforeFirstSpan(t *testing.T) {
	spans := []Span{{Column: 3, Style: NewStyle(1)}}
	if got := StyleAt(spans, 1); !got.IsDefault() {
		t.Errorf("columns before the first span should be default, got %+v", got)
	}
}

func TestValidateLine(t *testing.T) {
	ok := []Span{{Column: 0}, {Column: 3}, {Column: 7}}
	if err := ValidateLine(ok, 10); err != nil {
		t.Errorf("valid spans rejected: %v", err)
	}
	if err := ValidateLine(nil, 10); err != nil {
		t.Errorf("empty spans rejected: %v", err)
	}

	tests := []struct {
		name  string
		spans []Span
		limit int
	}{
		{"duplicate column", []Span{{Column: 0}, {Column: 0}}, 10},
		{"decreasing column", []Span{{Column: 5}, {Column: 2}}, 10},
		{"negative column", []Span{{Column: -1}}, 10},
		{"out of bounds", []Span{{Column: 12}}, 10},
	}
	for _, tt := range tests {
		if err := ValidateLine(tt.spans, tt.limit); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}

	// limit 0 disables the bounds check.
	if err := ValidateLine([]Span{{Column: 500}}, 0); err != nil {
		t.Errorf("unbounded validation rejected large column: %v", err)
	}
}
