package highlight

import (
	"container/list"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/stormlight/internal/styling"
)

// CacheConfig configures the line-span cache.
type CacheConfig struct {
	// MinLines is the cache size floor, used before the first viewport
	// hint arrives and for very small viewports.
	MinLines int

	// PrefetchFactor scales the viewport height into prefetch lines kept
	// around the visible window. The cache budget is
	// visible * (1 + 2*PrefetchFactor), floored at MinLines.
	PrefetchFactor int
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MinLines:       200,
		PrefetchFactor: 2,
	}
}

// CacheStats reports cache behavior counters.
type CacheStats struct {
	Hits         uint64
	Misses       uint64
	Placeholders uint64
	Evictions    uint64
	Rejected     uint64
	Size         int
}

// cacheEntry is one cached line. Entries keep their identity across line
// shifts: the line field is remapped in place and only the line index is
// rebuilt, so cached span data survives edits elsewhere in the document.
type cacheEntry struct {
	line  int
	spans []styling.Span
}

// LineSpanCache serves per-line style spans, computing them lazily from the
// guarded tree and bounding memory with scroll-aware eviction. It
// implements styling.ViewportAware.
//
// Reads that hit a locked tree return a placeholder span list and cache
// nothing, so the next frame retries instead of serving stale data forever.
type LineSpanCache struct {
	mu     sync.Mutex
	lru    *list.List
	byLine map[int]*list.Element

	tree   *GuardedTree
	index  LineIndex
	mapper StyleMapper

	config CacheConfig
	log    *zap.Logger

	firstVisible int
	lastVisible  int
	scrollDir    int
	keepFirst    int
	keepLast     int
	hasViewport  bool

	hits         atomic.Uint64
	misses       atomic.Uint64
	placeholders atomic.Uint64
	evictions    atomic.Uint64
	rejected     atomic.Uint64
}

// CacheOption configures a LineSpanCache.
type CacheOption func(*LineSpanCache)

// WithCacheLogger sets the cache logger. Defaults to a no-op logger.
func WithCacheLogger(log *zap.Logger) CacheOption {
	return func(c *LineSpanCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewLineSpanCache creates a cache over the given tree, line index and
// style mapper.
func NewLineSpanCache(tree *GuardedTree, index LineIndex, mapper StyleMapper, config CacheConfig, opts ...CacheOption) *LineSpanCache {
	if config.MinLines <= 0 {
		config.MinLines = DefaultCacheConfig().MinLines
	}
	if config.PrefetchFactor <= 0 {
		config.PrefetchFactor = DefaultCacheConfig().PrefetchFactor
	}
	c := &LineSpanCache{
		lru:       list.New(),
		byLine:    make(map[int]*list.Element),
		tree:      tree,
		index:     index,
		mapper:    mapper,
		config:    config,
		log:       zap.NewNop(),
		keepFirst: 0,
		keepLast:  math.MaxInt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// placeholderSpans is the non-cached result for a line whose styling is
// momentarily unavailable.
func placeholderSpans() []styling.Span {
	return []styling.Span{styling.DefaultSpan()}
}

// LineCount returns the document's line count.
func (c *LineSpanCache) LineCount() int {
	return c.index.LineCount()
}

// SetMapper installs a new style mapper. The caller is expected to follow
// up with InvalidateAll; cached spans still carry styles from the old
// mapper until then.
func (c *LineSpanCache) SetMapper(mapper StyleMapper) {
	c.mu.Lock()
	c.mapper = mapper
	c.mu.Unlock()
}

// SpansForLine returns the style spans for a line. Out-of-range lines
// produce an empty result, never an error.
func (c *LineSpanCache) SpansForLine(line int) []styling.Span {
	if line < 0 || line >= c.index.LineCount() {
		return nil
	}

	c.mu.Lock()
	if el, ok := c.byLine[line]; ok {
		c.lru.MoveToFront(el)
		spans := el.Value.(*cacheEntry).spans
		c.mu.Unlock()
		c.hits.Add(1)
		return spans
	}
	mapper := c.mapper
	c.mu.Unlock()
	c.misses.Add(1)

	start, end, ok := c.index.LineRange(line)
	if !ok {
		return nil
	}

	caps, err := c.tree.TryCaptures(start, end)
	if errors.Is(err, ErrBusy) {
		c.placeholders.Add(1)
		return placeholderSpans()
	}

	var spans []styling.Span
	if err == nil {
		spans, err = buildSpans(caps, start, end, mapper)
	}
	if err != nil {
		// Broken captures abort this line's styling; the line renders
		// plain until the next invalidation recomputes it.
		c.rejected.Add(1)
		c.log.Warn("line styling aborted",
			zap.Int("line", line),
			zap.Error(err))
		spans = placeholderSpans()
	}

	c.mu.Lock()
	if el, ok := c.byLine[line]; ok {
		// Lost a race with another reader; keep the cached spans.
		c.lru.MoveToFront(el)
		spans = el.Value.(*cacheEntry).spans
		c.mu.Unlock()
		return spans
	}
	c.byLine[line] = c.lru.PushFront(&cacheEntry{line: line, spans: spans})
	c.evictLocked()
	c.mu.Unlock()
	return spans
}

// buildSpans converts ordered captures into a span sequence, filling
// uncaptured gaps with the default span. Captures extending beyond the line
// are clipped; captures that go backwards or out of bounds are rejected.
func buildSpans(caps []Capture, lineStart, lineEnd uint32, mapper StyleMapper) ([]styling.Span, error) {
	width := int(lineEnd - lineStart)
	if len(caps) == 0 || width == 0 {
		return placeholderSpans(), nil
	}

	spans := make([]styling.Span, 0, 2*len(caps)+1)
	col := 0
	var prevStart uint32
	for i, cp := range caps {
		if cp.EndByte < cp.StartByte {
			return nil, fmt.Errorf("capture %d: inverted byte range %d-%d", i, cp.StartByte, cp.EndByte)
		}
		if i > 0 && cp.StartByte < prevStart {
			return nil, fmt.Errorf("capture %d: start %d before previous start %d", i, cp.StartByte, prevStart)
		}
		prevStart = cp.StartByte

		s := int(cp.StartByte) - int(lineStart)
		e := int(cp.EndByte) - int(lineStart)
		if s < col {
			s = col
		}
		if e > width {
			e = width
		}
		if e <= s {
			continue
		}
		if s > col {
			spans = append(spans, styling.Span{Column: col, Style: styling.DefaultStyle()})
		}
		st := styling.DefaultStyle()
		if mapper != nil {
			st = mapper.StyleFor(cp.Index)
		}
		spans = append(spans, styling.Span{Column: s, Style: st})
		col = e
	}
	if len(spans) == 0 {
		return placeholderSpans(), nil
	}
	if col < width {
		spans = append(spans, styling.Span{Column: col, Style: styling.DefaultStyle()})
	}
	if err := styling.ValidateLine(spans, width); err != nil {
		return nil, err
	}
	return spans, nil
}

// OnViewportChanged records the visible window and scroll direction, then
// recomputes the keep-range and evicts entries outside it. Prefetch leans
// toward the scroll direction: ahead gets at least as many lines as behind.
func (c *LineSpanCache) OnViewportChanged(firstVisible, lastVisible, scrollDelta int) {
	if lastVisible < firstVisible {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.firstVisible = firstVisible
	c.lastVisible = lastVisible
	switch {
	case scrollDelta > 0:
		c.scrollDir = 1
	case scrollDelta < 0:
		c.scrollDir = -1
	default:
		c.scrollDir = 0
	}
	c.hasViewport = true

	visible := lastVisible - firstVisible + 1
	base := visible * c.config.PrefetchFactor
	above, below := base, base
	switch c.scrollDir {
	case 1:
		above = base / 2
		below = base + base/2
	case -1:
		above = base + base/2
		below = base / 2
	}
	c.keepFirst = firstVisible - above
	if c.keepFirst < 0 {
		c.keepFirst = 0
	}
	c.keepLast = lastVisible + below

	c.evictLocked()
}

// maxSizeLocked derives the cache budget from the last viewport hint.
func (c *LineSpanCache) maxSizeLocked() int {
	if !c.hasViewport {
		return c.config.MinLines
	}
	visible := c.lastVisible - c.firstVisible + 1
	budget := visible * (1 + 2*c.config.PrefetchFactor)
	if budget < c.config.MinLines {
		budget = c.config.MinLines
	}
	return budget
}

// evictLocked removes least-recently-used entries outside the keep-range
// until the cache is back under budget. Entries inside the keep-range are
// never evicted.
func (c *LineSpanCache) evictLocked() {
	budget := c.maxSizeLocked()
	for el := c.lru.Back(); el != nil && c.lru.Len() > budget; {
		prev := el.Prev()
		ent := el.Value.(*cacheEntry)
		if ent.line < c.keepFirst || ent.line > c.keepLast {
			c.lru.Remove(el)
			delete(c.byLine, ent.line)
			c.evictions.Add(1)
		}
		el = prev
	}
}

// AdjustOnInsert remaps cached lines for an insertion spanning
// [startLine, endLine]. The edited line drops; lines after it shift down by
// the line delta without recomputation.
func (c *LineSpanCache) AdjustOnInsert(startLine, endLine int) {
	delta := endLine - startLine
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := make(map[int]*list.Element, len(c.byLine))
	for el := c.lru.Front(); el != nil; {
		next := el.Next()
		ent := el.Value.(*cacheEntry)
		switch {
		case ent.line == startLine:
			c.lru.Remove(el)
		case ent.line > startLine:
			ent.line += delta
			idx[ent.line] = el
		default:
			idx[ent.line] = el
		}
		el = next
	}
	c.byLine = idx
}

// AdjustOnDelete remaps cached lines for a deletion spanning
// [startLine, endLine]. Lines inside the deleted range drop (startLine
// included: it now holds merged content); later lines shift up.
func (c *LineSpanCache) AdjustOnDelete(startLine, endLine int) {
	delta := endLine - startLine
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := make(map[int]*list.Element, len(c.byLine))
	for el := c.lru.Front(); el != nil; {
		next := el.Next()
		ent := el.Value.(*cacheEntry)
		switch {
		case ent.line >= startLine && ent.line <= endLine:
			c.lru.Remove(el)
		case ent.line > endLine:
			ent.line -= delta
			idx[ent.line] = el
		default:
			idx[ent.line] = el
		}
		el = next
	}
	c.byLine = idx
}

// InvalidateAll drops every cached line. Called when the tree is replaced
// or the scheme changes.
func (c *LineSpanCache) InvalidateAll() {
	c.mu.Lock()
	c.lru.Init()
	c.byLine = make(map[int]*list.Element)
	c.mu.Unlock()
}

// InvalidateLines drops cached lines in [startLine, endLine].
func (c *LineSpanCache) InvalidateLines(startLine, endLine int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.lru.Front(); el != nil; {
		next := el.Next()
		ent := el.Value.(*cacheEntry)
		if ent.line >= startLine && ent.line <= endLine {
			c.lru.Remove(el)
			delete(c.byLine, ent.line)
		}
		el = next
	}
}

// Len returns the number of cached lines.
func (c *LineSpanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Contains reports whether a line is currently cached.
func (c *LineSpanCache) Contains(line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byLine[line]
	return ok
}

// Stats returns cache behavior counters.
func (c *LineSpanCache) Stats() CacheStats {
	return CacheStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Placeholders: c.placeholders.Load(),
		Evictions:    c.evictions.Load(),
		Rejected:     c.rejected.Load(),
		Size:         c.Len(),
	}
}
