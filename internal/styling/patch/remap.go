package patch

import (
	"fmt"
	"sort"
)

// UpdateForInsertion remaps the store for text inserted at
// (startLine, startCol) whose end landed at (endLine, endCol).
//
// Patches anchored at or after the insertion column on the start line move
// with the inserted text: they keep their width and re-anchor at
// endCol + (col - startCol) on endLine. Patches on later lines shift down
// by the inserted line delta. Patches entirely before the insertion point
// are untouched. Relative order is preserved by construction, so the store
// stays sorted without re-sorting.
func (s *Store) UpdateForInsertion(startLine, startCol, endLine, endCol int) error {
	if s.frozen {
		return ErrFrozen
	}
	if endLine < startLine || (endLine == startLine && endCol < startCol) {
		return fmt.Errorf("patch: invalid insertion range (%d:%d)-(%d:%d)", startLine, startCol, endLine, endCol)
	}

	deltaLines := endLine - startLine
	for i := range s.patches {
		p := &s.patches[i]
		switch {
		case p.StartLine < startLine:
			// Before the edit.
		case p.StartLine == startLine:
			if p.StartCol < startCol {
				break
			}
			width := p.EndCol - p.StartCol
			p.StartLine = endLine
			p.EndLine = endLine
			p.StartCol = endCol + (p.StartCol - startCol)
			p.EndCol = p.StartCol + width
		default:
			p.StartLine += deltaLines
			p.EndLine += deltaLines
		}
	}
	return nil
}

// UpdateForDeletion remaps the store for text deleted between
// (startLine, startCol) and (endLine, endCol), endCol exclusive.
//
// Single-line deletions classify each patch on the line against the
// deleted column range: fully inside drops, fully before stays, fully
// after shifts left, a patch straddling the deletion start truncates at
// startCol, one straddling the deletion end clips to startCol and shifts
// its end left, and one covering the whole range just shrinks. Patches
// that degenerate to zero width drop.
//
// Multi-line deletions merge the tail of endLine onto startLine at
// startCol. Patches strictly between the lines drop; start-line patches
// truncate at startCol (dropping if anchored at or after it); an end-line
// patch extending past endCol relocates onto startLine translated into the
// merged coordinate space, its leading edge clamped to startCol if it
// began before endCol; later lines shift up. Relocated patches are sorted
// and spliced back so global ordering never breaks.
func (s *Store) UpdateForDeletion(startLine, startCol, endLine, endCol int) error {
	if s.frozen {
		return ErrFrozen
	}
	if endLine < startLine || (endLine == startLine && endCol < startCol) {
		return fmt.Errorf("patch: invalid deletion range (%d:%d)-(%d:%d)", startLine, startCol, endLine, endCol)
	}

	if startLine == endLine {
		s.deleteWithinLine(startLine, startCol, endCol)
		return nil
	}
	s.deleteAcrossLines(startLine, startCol, endLine, endCol)
	return nil
}

func (s *Store) deleteWithinLine(line, startCol, endCol int) {
	n := endCol - startCol
	out := s.patches[:0]
	for _, p := range s.patches {
		if p.StartLine == line {
			switch {
			case p.EndCol <= startCol:
				// Fully before the deletion.
			case p.StartCol >= endCol:
				p.StartCol -= n
				p.EndCol -= n
			case p.StartCol >= startCol && p.EndCol <= endCol:
				continue
			case p.StartCol < startCol && p.EndCol <= endCol:
				p.EndCol = startCol
			case p.StartCol >= startCol:
				p.StartCol = startCol
				p.EndCol -= n
			default:
				// Covers the whole deleted range.
				p.EndCol -= n
			}
			if p.Empty() {
				continue
			}
		}
		out = append(out, p)
	}
	s.patches = out
}

func (s *Store) deleteAcrossLines(startLine, startCol, endLine, endCol int) {
	deltaLines := endLine - startLine
	var relocated []Patch

	out := s.patches[:0]
	for _, p := range s.patches {
		switch {
		case p.StartLine < startLine:
		case p.StartLine == startLine:
			if p.StartCol >= startCol {
				continue
			}
			if p.EndCol > startCol {
				p.EndCol = startCol
			}
			if p.Empty() {
				continue
			}
		case p.StartLine < endLine:
			continue
		case p.StartLine == endLine:
			if p.EndCol <= endCol {
				continue
			}
			if p.StartCol >= endCol {
				p.StartCol = startCol + (p.StartCol - endCol)
			} else {
				p.StartCol = startCol
			}
			p.EndCol = startCol + (p.EndCol - endCol)
			p.StartLine = startLine
			p.EndLine = startLine
			if p.Empty() {
				continue
			}
			relocated = append(relocated, p)
			continue
		default:
			p.StartLine -= deltaLines
			p.EndLine -= deltaLines
		}
		out = append(out, p)
	}
	s.patches = out

	if len(relocated) == 0 {
		return
	}
	sort.Slice(relocated, func(a, b int) bool {
		return compare(relocated[a], relocated[b]) < 0
	})
	for _, p := range relocated {
		s.insert(p)
	}
}
