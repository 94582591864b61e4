package patch

import (
	"errors"
	"fmt"
	"sort"
)

// Store errors. Both indicate producer bugs and are returned synchronously
// from the mutating call.
var (
	// ErrFrozen is returned by every mutating operation after Freeze.
	ErrFrozen = errors.New("patch: store is frozen")
	// ErrCrossLine is returned when a patch spans more than one line.
	ErrCrossLine = errors.New("patch: cross-line patches are not supported")
)

// Store holds patches fully sorted by (StartLine, StartCol, EndLine,
// EndCol) at all times, which makes per-line lookup a binary search and
// keeps patches for one line contiguous.
//
// The store expects the single-writer discipline of the editing loop: edits
// remap it synchronously before the next render query, and rendering only
// reads. It performs no locking of its own.
type Store struct {
	patches []Patch
	frozen  bool
}

// NewStore creates an empty patch store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of patches in the store.
func (s *Store) Len() int {
	return len(s.patches)
}

// Frozen returns true once Freeze has been called.
func (s *Store) Frozen() bool {
	return s.frozen
}

// Freeze marks the store immutable. Every mutating operation afterwards
// fails with ErrFrozen.
func (s *Store) Freeze() {
	s.frozen = true
}

// All returns a copy of every patch in store order.
func (s *Store) All() []Patch {
	out := make([]Patch, len(s.patches))
	copy(out, s.patches)
	return out
}

// Add inserts a patch at its sorted position. Cross-line patches are
// rejected with ErrCrossLine.
func (s *Store) Add(p Patch) error {
	if s.frozen {
		return ErrFrozen
	}
	if p.CrossesLines() {
		return fmt.Errorf("%w: %v", ErrCrossLine, p)
	}
	s.insert(p)
	return nil
}

// AddBatch inserts each patch at its sorted position. The batch is rejected
// as a whole if any patch crosses lines.
func (s *Store) AddBatch(ps []Patch) error {
	if s.frozen {
		return ErrFrozen
	}
	for _, p := range ps {
		if p.CrossesLines() {
			return fmt.Errorf("%w: %v", ErrCrossLine, p)
		}
	}
	for _, p := range ps {
		s.insert(p)
	}
	return nil
}

// PatchesOnLine returns the patches whose StartLine equals line, in store
// order. The returned slice aliases the store and is only valid until the
// next mutation.
func (s *Store) PatchesOnLine(line int) []Patch {
	i := sort.Search(len(s.patches), func(i int) bool {
		return s.patches[i].StartLine >= line
	})
	j := i
	for j < len(s.patches) && s.patches[j].StartLine == line {
		j++
	}
	if i == j {
		return nil
	}
	return s.patches[i:j:j]
}

// RemoveLineRange removes every patch whose StartLine falls in
// [startLine, endLine].
func (s *Store) RemoveLineRange(startLine, endLine int) error {
	if s.frozen {
		return ErrFrozen
	}
	i, j := s.lineRangeBounds(startLine, endLine)
	if i == j {
		return nil
	}
	s.patches = append(s.patches[:i], s.patches[j:]...)
	return nil
}

// ReplaceLineRange removes every patch whose StartLine falls in
// [startLine, endLine] and splices in the replacement batch. Replacement
// patches must themselves lie in the replaced range so the store stays
// sorted.
func (s *Store) ReplaceLineRange(startLine, endLine int, repl []Patch) error {
	if s.frozen {
		return ErrFrozen
	}
	for _, p := range repl {
		if p.CrossesLines() {
			return fmt.Errorf("%w: %v", ErrCrossLine, p)
		}
		if p.StartLine < startLine || p.StartLine > endLine {
			return fmt.Errorf("patch: replacement %v outside line range [%d, %d]", p, startLine, endLine)
		}
	}

	sorted := make([]Patch, len(repl))
	copy(sorted, repl)
	sort.Slice(sorted, func(a, b int) bool {
		return compare(sorted[a], sorted[b]) < 0
	})

	i, j := s.lineRangeBounds(startLine, endLine)
	out := make([]Patch, 0, i+len(sorted)+len(s.patches)-j)
	out = append(out, s.patches[:i]...)
	out = append(out, sorted...)
	out = append(out, s.patches[j:]...)
	s.patches = out
	return nil
}

// PruneOutsideLineRange drops every patch whose StartLine falls outside
// [startLine, endLine]. Bounds memory for large documents where only a
// viewport-sized window of overrides is worth keeping.
func (s *Store) PruneOutsideLineRange(startLine, endLine int) error {
	if s.frozen {
		return ErrFrozen
	}
	i, j := s.lineRangeBounds(startLine, endLine)
	s.patches = append(s.patches[:0], s.patches[i:j]...)
	return nil
}

// insert places p at its sorted position.
func (s *Store) insert(p Patch) {
	i := sort.Search(len(s.patches), func(i int) bool {
		return compare(s.patches[i], p) >= 0
	})
	s.patches = append(s.patches, Patch{})
	copy(s.patches[i+1:], s.patches[i:])
	s.patches[i] = p
}

// lineRangeBounds returns the half-open index range of patches whose
// StartLine falls in [startLine, endLine].
func (s *Store) lineRangeBounds(startLine, endLine int) (int, int) {
	i := sort.Search(len(s.patches), func(i int) bool {
		return s.patches[i].StartLine >= startLine
	})
	j := sort.Search(len(s.patches), func(i int) bool {
		return s.patches[i].StartLine > endLine
	})
	if j < i {
		j = i
	}
	return i, j
}
