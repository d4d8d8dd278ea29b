package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the remote log pipeline.
// Zero values use a 1024-record buffer and a 5s flush timeout.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queued struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// shipper owns the queue shared by an AsyncHandler and every handler derived from it.
type shipper struct {
	mu      sync.RWMutex // guards queue against send-after-close
	queue   chan queued
	closed  bool
	drained chan struct{}
	dropped atomic.Uint64
	timeout time.Duration
}

func newShipper(opts AsyncOptions) *shipper {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}
	s := &shipper{
		queue:   make(chan queued, opts.BufferSize),
		drained: make(chan struct{}),
		timeout: opts.FlushTimeout,
	}
	go s.loop()
	return s
}

func (s *shipper) loop() {
	defer close(s.drained)
	for q := range s.queue {
		_ = q.handler.Handle(q.ctx, q.record)
	}
}

func (s *shipper) push(q queued) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- q:
	default:
		s.dropped.Add(1)
	}
}

func (s *shipper) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	select {
	case <-s.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler hands records to a background goroutine so remote log shipping
// never blocks a request. Records are dropped when the buffer is full.
type AsyncHandler struct {
	next    slog.Handler
	shipper *shipper
}

// NewAsyncHandler wraps next with a buffered background queue.
func NewAsyncHandler(next slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{next: next, shipper: newShipper(opts)}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle queues a clone of r; it never returns an error.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next.Enabled(ctx, r.Level) {
		h.shipper.push(queued{ctx: ctx, record: r.Clone(), handler: h.next})
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), shipper: h.shipper}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), shipper: h.shipper}
}

// Dropped returns how many records were discarded because the buffer was full.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.shipper == nil {
		return 0
	}
	return h.shipper.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain.
// Without a context deadline it waits at most the configured flush timeout.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.shipper == nil {
		return nil
	}
	return h.shipper.close(ctx)
}
