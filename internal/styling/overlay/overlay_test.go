package overlay

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/stormlight/internal/styling"
	"github.com/dshills/stormlight/internal/styling/patch"
)

// fixedSpans serves a hand-built span table.
type fixedSpans struct {
	lines    map[int][]styling.Span
	count    int
	viewport [3]int
}

func (f *fixedSpans) SpansForLine(line int) []styling.Span {
	return f.lines[line]
}

func (f *fixedSpans) LineCount() int {
	return f.count
}

func (f *fixedSpans) OnViewportChanged(first, last, delta int) {
	f.viewport = [3]int{first, last, delta}
}

func mustAdd(t *testing.T, s *patch.Store, ps ...patch.Patch) {
	t.Helper()
	if err := s.AddBatch(ps); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
}

func TestMergeSplitsBaseAtPatchEdges(t *testing.T) {
	a := styling.NewStyle(1)
	b := styling.NewStyle(2)
	base := &fixedSpans{
		lines: map[int][]styling.Span{0: {{Column: 0, Style: a}, {Column: 5, Style: b}}},
		count: 1,
	}
	store := patch.NewStore()
	mustAdd(t, store, patch.New(0, 2, 4).WithBold(true))

	got := New(base, store).SpansForLine(0)
	want := []styling.Span{
		{Column: 0, Style: a},
		{Column: 2, Style: a.Bold()},
		{Column: 4, Style: a},
		{Column: 5, Style: b},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeOutputColumnsStrictlyIncrease(t *testing.T) {
	a := styling.NewStyle(1)
	b := styling.NewStyle(2)
	base := &fixedSpans{
		lines: map[int][]styling.Span{
			0: {{Column: 0, Style: a}, {Column: 3, Style: b}, {Column: 9, Style: a}},
		},
		count: 1,
	}
	store := patch.NewStore()
	mustAdd(t, store,
		patch.New(0, 0, 3).WithItalic(true),
		patch.New(0, 3, 6).WithBold(true),
		patch.New(0, 8, 12).WithStrikethrough(true),
	)

	got := New(base, store).SpansForLine(0)
	if err := styling.ValidateLine(got, 0); err != nil {
		t.Fatalf("merged spans violate monotonicity: %v\nspans: %+v", err, got)
	}
	if got[0].Column < 0 {
		t.Errorf("first column = %d, want >= 0", got[0].Column)
	}
}

func TestMergeWithNoPatchesReturnsBaseSlice(t *testing.T) {
	a := styling.NewStyle(1)
	baseSpans := []styling.Span{{Column: 0, Style: a}}
	base := &fixedSpans{lines: map[int][]styling.Span{0: baseSpans}, count: 1}

	got := New(base, patch.NewStore()).SpansForLine(0)
	if &got[0] != &baseSpans[0] {
		t.Error("no-patch read should return the base slice without copying")
	}
}

func TestMergeAppliesOverridesOnlyToSetFields(t *testing.T) {
	a := styling.NewStyle(3).Bold()
	base := &fixedSpans{lines: map[int][]styling.Span{0: {{Column: 0, Style: a}}}, count: 1}

	red := styling.ColorFromRGB(255, 0, 0)
	store := patch.NewStore()
	mustAdd(t, store, patch.New(0, 1, 4).WithBackground(red))

	got := New(base, store).SpansForLine(0)
	want := []styling.Span{
		{Column: 0, Style: a},
		{Column: 1, Style: a},
		{Column: 4, Style: a},
	}
	want[1].Style.BgOverride = red // override rides the side channel, base fields intact
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("override merge (-want +got):\n%s", diff)
	}
	if got[1].Style.Background != a.Background {
		t.Error("palette background slot must not be rewritten by a color override")
	}
	if !got[1].Style.Attributes.Has(styling.AttrBold) {
		t.Error("unset attribute fields must fall through to the base style")
	}
}

func TestMergePatchBeyondBaseRangeIgnored(t *testing.T) {
	base := &fixedSpans{lines: map[int][]styling.Span{}, count: 1}
	store := patch.NewStore()
	mustAdd(t, store, patch.New(0, 2, 4).WithBold(true))

	if got := New(base, store).SpansForLine(0); len(got) != 0 {
		t.Errorf("patch on an empty line should be ignored, got %+v", got)
	}
	if store.Len() != 1 {
		t.Error("ignored patch must stay in the store")
	}
}

func TestMergeLastAppliedWins(t *testing.T) {
	a := styling.NewStyle(1)
	base := &fixedSpans{lines: map[int][]styling.Span{0: {{Column: 0, Style: a}}}, count: 1}

	red := styling.ColorFromRGB(255, 0, 0)
	blue := styling.ColorFromRGB(0, 0, 255)
	store := patch.NewStore()
	mustAdd(t, store,
		patch.New(0, 0, 6).WithForeground(red),
		patch.New(0, 2, 4).WithForeground(blue),
	)

	got := New(base, store).SpansForLine(0)
	if s := styling.StyleAt(got, 3); !s.FgOverride.Equals(blue) {
		t.Errorf("overlap center fg = %v, want blue (last applied)", s.FgOverride)
	}
	if s := styling.StyleAt(got, 1); !s.FgOverride.Equals(red) {
		t.Errorf("outside overlap fg = %v, want red", s.FgOverride)
	}
	if s := styling.StyleAt(got, 5); !s.FgOverride.Equals(red) {
		t.Errorf("after overlap fg = %v, want red", s.FgOverride)
	}
}

func TestScenarioInsertThenOverlay(t *testing.T) {
	// Document "abcdef" styled by a single default span, with a red
	// background on "bc". Inserting "XY" at column 0 must shift the patch
	// to columns 3-5 and the overlay must paint exactly those columns.
	red := styling.ColorFromRGB(255, 0, 0)
	store := patch.NewStore()
	mustAdd(t, store, patch.New(0, 1, 3).WithBackground(red))

	if err := store.UpdateForInsertion(0, 0, 0, 2); err != nil {
		t.Fatalf("UpdateForInsertion: %v", err)
	}

	base := &fixedSpans{
		lines: map[int][]styling.Span{0: {{Column: 0, Style: styling.DefaultStyle()}}},
		count: 1,
	}
	got := New(base, store).SpansForLine(0)

	// "XYabcdef": the original "bc" now sits at columns 3-4.
	for col := 0; col < 8; col++ {
		s := styling.StyleAt(got, col)
		wantRed := col == 3 || col == 4
		if wantRed && !s.BgOverride.Equals(red) {
			t.Errorf("col %d: bg = %v, want red", col, s.BgOverride)
		}
		if !wantRed && s.BgOverride.IsSet() {
			t.Errorf("col %d: bg = %v, want unset", col, s.BgOverride)
		}
	}
}

func TestOverlayForwardsViewportHints(t *testing.T) {
	base := &fixedSpans{lines: map[int][]styling.Span{}, count: 10}
	ps := New(base, patch.NewStore())

	ps.OnViewportChanged(4, 9, 1)
	if base.viewport != [3]int{4, 9, 1} {
		t.Errorf("viewport hint = %v, want [4 9 1]", base.viewport)
	}
	if ps.LineCount() != 10 {
		t.Errorf("LineCount = %d, want 10", ps.LineCount())
	}
}

func TestOverlayPatchAtSpanBoundary(t *testing.T) {
	a := styling.NewStyle(1)
	b := styling.NewStyle(2)
	base := &fixedSpans{
		lines: map[int][]styling.Span{0: {{Column: 0, Style: a}, {Column: 5, Style: b}}},
		count: 1,
	}
	store := patch.NewStore()
	mustAdd(t, store, patch.New(0, 5, 7).WithBold(true))

	got := New(base, store).SpansForLine(0)
	want := []styling.Span{
		{Column: 0, Style: a},
		{Column: 5, Style: b.Bold()},
		{Column: 7, Style: b},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("boundary patch (-want +got):\n%s", diff)
	}
}
