package highlight

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy reports that the parse tree is locked by the worker. Readers
// treat it as "try again next frame", never as a failure.
var ErrBusy = errors.New("highlight: parse tree busy")

// GuardedTree serializes access to a capture source. The worker goroutine
// takes the blocking mutation path; the render goroutine only ever takes
// the try-lock read path, so a query issued mid-mutation degrades to
// ErrBusy instead of stalling a frame.
type GuardedTree struct {
	mu  sync.Mutex
	src CaptureSource
}

// NewGuardedTree wraps a capture source.
func NewGuardedTree(src CaptureSource) *GuardedTree {
	return &GuardedTree{src: src}
}

// Init parses text from scratch. Blocks until the tree is available.
func (g *GuardedTree) Init(ctx context.Context, text []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Init(ctx, text)
}

// Edit applies an incremental edit. Blocks until the tree is available.
func (g *GuardedTree) Edit(ctx context.Context, edit Edit, text []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Edit(ctx, edit, text)
}

// Swap replaces the capture source, releasing the old one.
func (g *GuardedTree) Swap(src CaptureSource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.src != nil {
		g.src.Release()
	}
	g.src = src
}

// Release frees the underlying source's resources.
func (g *GuardedTree) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.src != nil {
		g.src.Release()
		g.src = nil
	}
}

// TryCaptures returns the captures overlapping [startByte, endByte) if the
// tree can be locked without waiting. Returns ErrBusy when the worker holds
// the tree.
func (g *GuardedTree) TryCaptures(startByte, endByte uint32) ([]Capture, error) {
	if !g.mu.TryLock() {
		return nil, ErrBusy
	}
	defer g.mu.Unlock()
	if g.src == nil {
		return nil, nil
	}
	return g.src.Captures(startByte, endByte)
}

// CaptureNames returns the source's capture namespace. Blocks; intended for
// session setup and scheme swaps, not the render path.
func (g *GuardedTree) CaptureNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.src == nil {
		return nil
	}
	return g.src.CaptureNames()
}
