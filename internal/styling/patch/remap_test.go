package patch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/stormlight/internal/styling"
)

func mustStore(t *testing.T, ps ...Patch) *Store {
	t.Helper()
	s := NewStore()
	if err := s.AddBatch(ps); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	return s
}

func TestInsertionLeavesEarlierPatchAlone(t *testing.T) {
	before := New(3, 0, 4)
	s := mustStore(t, before)

	// Insert 2 chars at column 6, after the patch.
	if err := s.UpdateForInsertion(3, 6, 3, 8); err != nil {
		t.Fatalf("UpdateForInsertion: %v", err)
	}
	if diff := cmp.Diff([]Patch{before}, s.All()); diff != "" {
		t.Errorf("patch before the insertion changed (-want +got):\n%s", diff)
	}
}

func TestInsertionShiftsPatchAtOrAfterColumn(t *testing.T) {
	s := mustStore(t, New(3, 6, 9))

	// Insert "XY" at column 4 on the same line.
	if err := s.UpdateForInsertion(3, 4, 3, 6); err != nil {
		t.Fatalf("UpdateForInsertion: %v", err)
	}
	want := []Patch{New(3, 8, 11)}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("shifted patch mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertionMovesPatchAcrossLines(t *testing.T) {
	// Patch anchored at the insertion column rides the inserted newline to
	// the end of the insertion, width preserved.
	s := mustStore(t, New(2, 5, 9), New(4, 1, 2))

	// Insert a newline plus 3 chars at (2,5); insertion ends at (3,3).
	if err := s.UpdateForInsertion(2, 5, 3, 3); err != nil {
		t.Fatalf("UpdateForInsertion: %v", err)
	}
	want := []Patch{
		New(3, 3, 7), // moved: anchor 5 -> endCol 3 + (5-5), width 4
		New(5, 1, 2), // later line shifted by the line delta
	}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("multi-line insertion mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertionScenarioFromColumnZero(t *testing.T) {
	// Document "abcdef" with a red-background patch on "bc"; inserting "XY"
	// at column 0 moves the patch right by two columns.
	red := styling.ColorFromRGB(255, 0, 0)
	s := mustStore(t, New(0, 1, 3).WithBackground(red))

	if err := s.UpdateForInsertion(0, 0, 0, 2); err != nil {
		t.Fatalf("UpdateForInsertion: %v", err)
	}
	want := []Patch{New(0, 3, 5).WithBackground(red)}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("scenario remap mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleLineDeletionClasses(t *testing.T) {
	// Deletion removes columns [5,10) on line 1.
	tests := []struct {
		name string
		in   Patch
		want []Patch
	}{
		{"fully before", New(1, 0, 4), []Patch{New(1, 0, 4)}},
		{"touching start stays", New(1, 2, 5), []Patch{New(1, 2, 5)}},
		{"fully inside dropped", New(1, 6, 9), nil},
		{"exact range dropped", New(1, 5, 10), nil},
		{"fully after shifts", New(1, 12, 15), []Patch{New(1, 7, 10)}},
		{"at deletion end shifts", New(1, 10, 12), []Patch{New(1, 5, 7)}},
		{"straddles start truncates", New(1, 3, 8), []Patch{New(1, 3, 5)}},
		{"straddles end clips", New(1, 7, 13), []Patch{New(1, 5, 8)}},
		{"covers deletion shrinks", New(1, 2, 14), []Patch{New(1, 2, 9)}},
		{"inside at boundary dropped", New(1, 5, 8), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustStore(t, tt.in)
			if err := s.UpdateForDeletion(1, 5, 1, 10); err != nil {
				t.Fatalf("UpdateForDeletion: %v", err)
			}
			got := s.All()
			if len(got) == 0 {
				got = nil
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("deletion class %q (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestSingleLineDeletionIgnoresOtherLines(t *testing.T) {
	s := mustStore(t, New(0, 0, 3), New(2, 0, 3))
	if err := s.UpdateForDeletion(1, 0, 1, 4); err != nil {
		t.Fatalf("UpdateForDeletion: %v", err)
	}
	want := []Patch{New(0, 0, 3), New(2, 0, 3)}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("unrelated lines changed (-want +got):\n%s", diff)
	}
}

func TestMultiLineDeletion(t *testing.T) {
	// Delete from (1,4) to (3,2): line 2 vanishes, line 3's tail merges
	// onto line 1 at column 4.
	s := mustStore(t,
		New(0, 0, 2),  // before: untouched
		New(1, 0, 3),  // start line, ends before startCol: untouched
		New(1, 2, 7),  // start line, straddles startCol: truncates to 4
		New(1, 5, 8),  // start line, starts after startCol: dropped
		New(2, 0, 4),  // strictly between: dropped
		New(3, 0, 1),  // end line, ends before endCol: dropped
		New(3, 4, 9),  // end line, past endCol: relocates to (1, 6..11)
		New(4, 2, 5),  // after: shifts up two lines
	)

	if err := s.UpdateForDeletion(1, 4, 3, 2); err != nil {
		t.Fatalf("UpdateForDeletion: %v", err)
	}

	want := []Patch{
		New(0, 0, 2),
		New(1, 0, 3),
		New(1, 2, 4),
		New(1, 6, 11),
		New(2, 2, 5),
	}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("multi-line deletion (-want +got):\n%s", diff)
	}
}

func TestMultiLineDeletionClampsLeadingEdge(t *testing.T) {
	// End-line patch starting before endCol keeps only its tail; its
	// leading edge clamps to the merge column.
	s := mustStore(t, New(3, 0, 6))

	if err := s.UpdateForDeletion(1, 4, 3, 2); err != nil {
		t.Fatalf("UpdateForDeletion: %v", err)
	}
	want := []Patch{New(1, 4, 8)}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("clamped relocation (-want +got):\n%s", diff)
	}
}

func TestMultiLineDeletionRelocationKeepsOrder(t *testing.T) {
	// Relocated patches must land at their sorted position among patches
	// already on the start line.
	s := mustStore(t,
		New(1, 0, 2),
		New(3, 5, 9),
		New(3, 10, 12),
	)

	if err := s.UpdateForDeletion(1, 2, 3, 4); err != nil {
		t.Fatalf("UpdateForDeletion: %v", err)
	}

	want := []Patch{
		New(1, 0, 2),
		New(1, 3, 7),
		New(1, 8, 10),
	}
	if diff := cmp.Diff(want, s.All()); diff != "" {
		t.Errorf("relocation order (-want +got):\n%s", diff)
	}

	// The store must still be binary-searchable per line.
	got := s.PatchesOnLine(1)
	if len(got) != 3 {
		t.Errorf("PatchesOnLine(1) len = %d, want 3", len(got))
	}
}

func TestDeletionRejectsInvertedRange(t *testing.T) {
	s := mustStore(t, New(0, 0, 1))
	if err := s.UpdateForDeletion(2, 0, 1, 0); err == nil {
		t.Error("inverted line range should fail")
	}
	if err := s.UpdateForInsertion(1, 4, 1, 2); err == nil {
		t.Error("inverted column range should fail")
	}
}
