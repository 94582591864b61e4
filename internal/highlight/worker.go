package highlight

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Worker errors.
var (
	ErrAlreadyRunning = errors.New("highlight: worker already running")
	ErrNotRunning     = errors.New("highlight: worker not running")
	ErrQueueFull      = errors.New("highlight: worker queue full")
)

const defaultQueueSize = 1024

// Invalidator receives styling-changed notifications from the worker
// goroutine after a parse lands.
type Invalidator interface {
	InvalidateAll()
	InvalidateLines(startLine, endLine int)
}

type messageKind uint8

const (
	msgInit messageKind = iota
	msgEdit
	msgApply
)

func (k messageKind) String() string {
	switch k {
	case msgInit:
		return "init"
	case msgEdit:
		return "edit"
	case msgApply:
		return "apply"
	default:
		return "unknown"
	}
}

// message is one unit of worker work. Messages for a document are processed
// strictly in enqueue order by a single goroutine.
type message struct {
	kind messageKind
	text []byte
	edit Edit
	name string
	fn   func(context.Context) error
}

// WorkerStats holds worker behavior counters.
type WorkerStats struct {
	Processed  uint64
	Dropped    uint64
	Panics     uint64
	Failures   uint64
	QueueDepth int
}

// Worker owns one document's parse state. All tree mutation happens on its
// single goroutine, in FIFO message order; readers reach the tree only
// through the guarded try-lock.
type Worker struct {
	tree  *GuardedTree
	inval Invalidator
	log   *zap.Logger

	queue chan message
	done  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	running atomic.Bool
	aborted atomic.Bool

	processed atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
	failures  atomic.Uint64

	mu      sync.Mutex
	lastErr error
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithQueueSize sets the message queue capacity.
func WithQueueSize(size int) WorkerOption {
	return func(w *Worker) {
		if size > 0 {
			w.queue = make(chan message, size)
		}
	}
}

// WithInvalidator sets the invalidation sink notified after parses land.
func WithInvalidator(inv Invalidator) WorkerOption {
	return func(w *Worker) {
		w.inval = inv
	}
}

// WithWorkerLogger sets the worker logger. Defaults to a no-op logger.
func WithWorkerLogger(log *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorker creates a worker over the given guarded tree.
func NewWorker(tree *GuardedTree, opts ...WorkerOption) *Worker {
	w := &Worker{
		tree:  tree,
		log:   zap.NewNop(),
		queue: make(chan message, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the worker goroutine.
func (w *Worker) Start() error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})
	go w.run()
	return nil
}

// Stop shuts the worker down, draining queued messages first. The context
// bounds how long to wait for the drain.
func (w *Worker) Stop(ctx context.Context) error {
	if !w.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort marks the document as closing. Queued messages are skipped and
// in-flight results are not published, so a torn-down cache never hears
// from a dead document. Follow with Stop.
func (w *Worker) Abort() {
	w.aborted.Store(true)
}

// EnqueueInit schedules a full parse of text. The queue never blocks; a
// full queue returns ErrQueueFull and drops the message.
func (w *Worker) EnqueueInit(text []byte) error {
	return w.enqueue(message{kind: msgInit, text: text})
}

// EnqueueEdit schedules an incremental reparse for one edit. text is the
// post-edit document content.
func (w *Worker) EnqueueEdit(edit Edit, text []byte) error {
	return w.enqueue(message{kind: msgEdit, edit: edit, text: text})
}

// Apply schedules an arbitrary task on the worker goroutine, in FIFO order
// with parses. Language and scheme swaps ride through here so they cannot
// interleave with an in-flight parse.
func (w *Worker) Apply(name string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("highlight: nil apply func")
	}
	return w.enqueue(message{kind: msgApply, name: name, fn: fn})
}

func (w *Worker) enqueue(msg message) error {
	if !w.running.Load() {
		return ErrNotRunning
	}
	select {
	case w.queue <- msg:
		return nil
	default:
		w.dropped.Add(1)
		return ErrQueueFull
	}
}

// IsRunning reports whether the worker goroutine is active.
func (w *Worker) IsRunning() bool {
	return w.running.Load()
}

// QueueDepth returns the number of pending messages.
func (w *Worker) QueueDepth() int {
	return len(w.queue)
}

// Err returns the most recent message-processing error, if any.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Stats returns worker behavior counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Processed:  w.processed.Load(),
		Dropped:    w.dropped.Load(),
		Panics:     w.panics.Load(),
		Failures:   w.failures.Load(),
		QueueDepth: len(w.queue),
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case msg := <-w.queue:
			w.process(msg)
		case <-w.ctx.Done():
			// Drain whatever is still queued so edits enqueued just
			// before Stop are not silently lost.
			for {
				select {
				case msg := <-w.queue:
					w.process(msg)
				default:
					return
				}
			}
		}
	}
}

// process handles one message. A panic is contained to the message that
// raised it; the worker moves on to the next one.
func (w *Worker) process(msg message) {
	defer func() {
		if r := recover(); r != nil {
			w.panics.Add(1)
			w.log.Error("worker message panicked",
				zap.Stringer("kind", msg.kind),
				zap.String("task", msg.name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	if w.aborted.Load() {
		return
	}

	var err error
	switch msg.kind {
	case msgInit:
		err = w.handleInit(msg)
	case msgEdit:
		err = w.handleEdit(msg)
	case msgApply:
		if err = msg.fn(w.ctx); err != nil {
			w.log.Warn("worker task failed",
				zap.String("task", msg.name),
				zap.Error(err))
		}
	}
	w.processed.Add(1)
	if err != nil {
		w.failures.Add(1)
		w.setErr(err)
	}
}

func (w *Worker) handleInit(msg message) error {
	if err := w.tree.Init(w.ctx, msg.text); err != nil {
		w.log.Warn("full parse failed", zap.Error(err))
		return err
	}
	if w.aborted.Load() || w.inval == nil {
		return nil
	}
	w.inval.InvalidateAll()
	return nil
}

func (w *Worker) handleEdit(msg message) error {
	if err := w.tree.Edit(w.ctx, msg.edit, msg.text); err != nil {
		w.log.Warn("incremental parse failed", zap.Error(err))
		return err
	}
	if w.aborted.Load() || w.inval == nil {
		return nil
	}
	first := int(msg.edit.StartPoint.Row)
	last := int(msg.edit.NewEndPoint.Row)
	if old := int(msg.edit.OldEndPoint.Row); old > last {
		last = old
	}
	w.inval.InvalidateLines(first, last)
	return nil
}
