// Package session wires one document's styling pipeline together: text
// buffer, capture source, parse worker, span cache, patch store, and the
// overlay readers sit behind a single handle identified by UUID.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/stormlight/internal/config"
	"github.com/dshills/stormlight/internal/highlight"
	"github.com/dshills/stormlight/internal/lexical"
	"github.com/dshills/stormlight/internal/scheme"
	"github.com/dshills/stormlight/internal/semantic"
	"github.com/dshills/stormlight/internal/styling/overlay"
	"github.com/dshills/stormlight/internal/styling/patch"
	"github.com/dshills/stormlight/internal/treesit"
)

// ErrNoLegend reports a token payload arriving before its legend.
var ErrNoLegend = errors.New("session: no token legend set")

// Session owns the live styling pipeline for one document.
type Session struct {
	id       string
	path     string
	language string

	buffer *Buffer
	tree   *highlight.GuardedTree
	worker *highlight.Worker
	cache  *highlight.LineSpanCache
	store  *patch.Store
	spans  *overlay.PatchedSpans

	mu          sync.RWMutex
	scheme      *scheme.Scheme
	legend      semantic.Legend
	hasLegend   bool
	pendingInit bool

	closed atomic.Bool
	log    *zap.Logger
}

// Option configures a session at open time.
type Option func(*options)

type options struct {
	language string
	scheme   *scheme.Scheme
	log      *zap.Logger
}

// WithLanguage forces the capture source language instead of detecting it
// from the file path. Unknown names fail Open.
func WithLanguage(name string) Option {
	return func(o *options) { o.language = name }
}

// WithScheme sets the color scheme. Defaults to the builtin scheme.
func WithScheme(s *scheme.Scheme) Option {
	return func(o *options) { o.scheme = s }
}

// WithLogger sets the logger for the session and its worker.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// Open builds the pipeline for a document and starts its worker. The
// capture source prefers the incremental parser and falls back to lexical
// scanning for languages it does not know.
func Open(path string, text []byte, cfg config.Config, opts ...Option) (*Session, error) {
	o := options{log: zap.NewNop(), scheme: scheme.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	buffer := NewBuffer(text)
	src, language, err := buildSource(path, o.language, buffer.Text())
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.New().String(),
		path:     path,
		language: language,
		buffer:   buffer,
		tree:     highlight.NewGuardedTree(src),
		store:    patch.NewStore(),
		scheme:   o.scheme,
		log:      o.log,
	}

	mapper := s.scheme.Compile(s.tree.CaptureNames())
	s.cache = highlight.NewLineSpanCache(s.tree, s.buffer, mapper,
		highlight.CacheConfig{MinLines: cfg.Cache.MinLines, PrefetchFactor: cfg.Cache.PrefetchFactor},
		highlight.WithCacheLogger(o.log))
	s.worker = highlight.NewWorker(s.tree,
		highlight.WithQueueSize(cfg.Worker.QueueSize),
		highlight.WithInvalidator(s.cache),
		highlight.WithWorkerLogger(o.log))
	s.spans = overlay.New(s.cache, s.store)

	if err := s.worker.Start(); err != nil {
		s.tree.Release()
		return nil, fmt.Errorf("session: start worker: %w", err)
	}
	if err := s.worker.EnqueueInit(s.buffer.Text()); err != nil {
		_ = s.worker.Stop(context.Background())
		s.tree.Release()
		return nil, fmt.Errorf("session: enqueue initial parse: %w", err)
	}

	s.log.Info("session opened",
		zap.String("id", s.id),
		zap.String("path", path),
		zap.String("language", language),
		zap.Int("lines", buffer.LineCount()))
	return s, nil
}

// buildSource resolves the capture source for a document.
func buildSource(path, forced string, sample []byte) (highlight.CaptureSource, string, error) {
	if forced != "" {
		if lang, err := treesit.Lookup(forced); err == nil {
			src, err := treesit.NewSource(lang)
			if err != nil {
				return nil, "", err
			}
			return src, lang.Name, nil
		}
		src, err := lexical.NewSource(forced)
		if err != nil {
			return nil, "", err
		}
		return src, src.Name(), nil
	}

	if lang, err := treesit.Detect(path); err == nil {
		src, err := treesit.NewSource(lang)
		if err != nil {
			return nil, "", err
		}
		return src, lang.Name, nil
	}
	src := lexical.DetectSource(path, sample)
	return src, src.Name(), nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Path returns the document path the session was opened with.
func (s *Session) Path() string { return s.path }

// Language returns the resolved capture source language.
func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// Buffer returns the document text buffer.
func (s *Session) Buffer() *Buffer { return s.buffer }

// Spans returns the patched span reader the renderer draws from.
func (s *Session) Spans() *overlay.PatchedSpans { return s.spans }

// Scheme returns the active color scheme.
func (s *Session) Scheme() *scheme.Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme
}

// Insert applies a text insertion at (line, col). The span cache and
// patch store are remapped before Insert returns; the parse lands through
// the worker afterwards.
func (s *Session) Insert(line, col int, text []byte) error {
	if s.closed.Load() {
		return highlight.ErrNotRunning
	}
	if len(text) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edit, end, err := s.buffer.Insert(line, col, text)
	if err != nil {
		return err
	}
	s.cache.AdjustOnInsert(line, end.Line)
	if err := s.store.UpdateForInsertion(line, col, end.Line, end.Col); err != nil {
		return err
	}
	return s.publishLocked(edit)
}

// Delete applies a text deletion, end exclusive. Deleting a line break is
// a range ending at column 0 of the following line.
func (s *Session) Delete(startLine, startCol, endLine, endCol int) error {
	if s.closed.Load() {
		return highlight.ErrNotRunning
	}
	if startLine == endLine && startCol == endCol {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edit, err := s.buffer.Delete(startLine, startCol, endLine, endCol)
	if err != nil {
		return err
	}
	s.cache.AdjustOnDelete(startLine, endLine)
	if err := s.store.UpdateForDeletion(startLine, startCol, endLine, endCol); err != nil {
		return err
	}
	return s.publishLocked(edit)
}

// publishLocked hands an edit to the worker. A full queue drops the edit
// and degrades the session: the next publish enqueues a full reparse
// instead, which covers every dropped edit at once.
func (s *Session) publishLocked(edit highlight.Edit) error {
	text := s.buffer.Text()
	if s.pendingInit {
		if err := s.worker.EnqueueInit(text); err != nil {
			if errors.Is(err, highlight.ErrQueueFull) {
				return nil
			}
			return err
		}
		s.pendingInit = false
		return nil
	}

	err := s.worker.EnqueueEdit(edit, text)
	if errors.Is(err, highlight.ErrQueueFull) {
		s.pendingInit = true
		s.log.Warn("edit queue full, scheduling full reparse",
			zap.String("id", s.id),
			zap.Int("depth", s.worker.QueueDepth()))
		return nil
	}
	return err
}

// SetLegend decodes and stores the semantic token legend used by
// subsequent token payloads.
func (s *Session) SetLegend(payload []byte) error {
	legend, err := semantic.DecodeLegend(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legend = legend
	s.hasLegend = true
	return nil
}

// ApplyTokens decodes a full-document token payload and replaces every
// semantic patch with the result.
func (s *Session) ApplyTokens(payload []byte) error {
	return s.applyTokens(payload, 0, s.buffer.LineCount()-1)
}

// ApplyTokensRange decodes a windowed token payload and replaces the
// semantic patches on [startLine, endLine] only.
func (s *Session) ApplyTokensRange(payload []byte, startLine, endLine int) error {
	if startLine < 0 || endLine < startLine {
		return fmt.Errorf("%w: line range [%d, %d]", ErrRangeInvalid, startLine, endLine)
	}
	return s.applyTokens(payload, startLine, endLine)
}

func (s *Session) applyTokens(payload []byte, startLine, endLine int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasLegend {
		return ErrNoLegend
	}
	tokens, err := semantic.DecodeTokens(s.legend, payload)
	if err != nil {
		return err
	}

	patches := semantic.Patches(s.scheme, tokens)
	kept := patches[:0]
	for _, p := range patches {
		if p.StartLine < startLine || p.StartLine > endLine {
			continue
		}
		kept = append(kept, p)
	}
	if dropped := len(patches) - len(kept); dropped > 0 {
		s.log.Warn("token patches outside window dropped",
			zap.String("id", s.id),
			zap.Int("dropped", dropped),
			zap.Int("startLine", startLine),
			zap.Int("endLine", endLine))
	}
	return s.store.ReplaceLineRange(startLine, endLine, kept)
}

// SetLanguage swaps the capture source and schedules a full reparse under
// the new grammar. Names resolve like WithLanguage; unknown names fail
// without touching the session. The swap rides the worker queue, so it
// lands after any parses already in flight.
func (s *Session) SetLanguage(name string) error {
	if s.closed.Load() {
		return highlight.ErrNotRunning
	}
	src, language, err := buildSource(s.path, name, s.buffer.Text())
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.language
	s.language = language
	mapper := s.scheme.Compile(src.CaptureNames())
	text := s.buffer.Text()
	err = s.worker.Apply("set language", func(ctx context.Context) error {
		s.tree.Swap(src)
		s.cache.SetMapper(mapper)
		if err := s.tree.Init(ctx, text); err != nil {
			return err
		}
		s.cache.InvalidateAll()
		return nil
	})
	if err != nil {
		s.language = prev
	}
	s.mu.Unlock()

	if err != nil {
		src.Release()
	}
	return err
}

// SetScheme swaps the color scheme. The style table rebuild rides the
// worker queue so it lands after any parses already in flight.
func (s *Session) SetScheme(sch *scheme.Scheme) error {
	s.mu.Lock()
	s.scheme = sch
	s.mu.Unlock()

	return s.worker.Apply("set scheme", func(context.Context) error {
		s.cache.SetMapper(sch.Compile(s.tree.CaptureNames()))
		s.cache.InvalidateAll()
		return nil
	})
}

// WorkerStats reports worker counters.
func (s *Session) WorkerStats() highlight.WorkerStats { return s.worker.Stats() }

// CacheStats reports span cache counters.
func (s *Session) CacheStats() highlight.CacheStats { return s.cache.Stats() }

// Close aborts in-flight work, stops the worker, and releases parser
// resources. Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.worker.Abort()
	err := s.worker.Stop(ctx)
	s.tree.Release()
	s.store.Freeze()
	s.log.Info("session closed", zap.String("id", s.id))
	return err
}
