// Package persist serializes fire-and-forget writes to a domain.KVStore.
//
// A Writer owns one key. Submissions land in a single pending slot that a
// dedicated goroutine drains: a submission made while a write is in flight
// replaces any older unstarted one, and writes reach the store strictly in
// submission order, so an older snapshot can never land after a newer one.
package persist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gallery/internal/domain"
)

const defaultWriteTimeout = 5 * time.Second

// ErrClosed is returned by Flush on a closed writer.
var ErrClosed = errors.New("writer is closed")

type op struct {
	value  string
	remove bool
	seq    uint64
}

// Writer is a single-slot, latest-wins write queue for one key.
type Writer struct {
	kv      domain.KVStore
	key     string
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	pending  *op
	seq      uint64
	written  uint64 // seq of the last completed write
	failures int
	closed   bool

	wake    chan struct{}
	flushCh chan chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// Option configures a Writer.
type Option func(*Writer)

// WithTimeout bounds each individual store write.
func WithTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithLogger sets the logger used for write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter starts the drain goroutine for key.
func NewWriter(kv domain.KVStore, key string, opts ...Option) *Writer {
	w := &Writer{
		kv:      kv,
		key:     key,
		timeout: defaultWriteTimeout,
		logger:  slog.Default(),
		wake:    make(chan struct{}, 1),
		flushCh: make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Key returns the key this writer owns.
func (w *Writer) Key() string { return w.key }

// Submit schedules value to be written. It never blocks.
func (w *Writer) Submit(value string) {
	w.enqueue(op{value: value})
}

// SubmitRemove schedules removal of the key. It never blocks.
func (w *Writer) SubmitRemove() {
	w.enqueue(op{remove: true})
}

func (w *Writer) enqueue(o op) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("write dropped after close", "key", w.key)
		return
	}
	w.seq++
	o.seq = w.seq
	w.pending = &o
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default: // Already signalled
	}
}

// Flush blocks until every submission made before the call has been
// attempted, or ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flushCh <- reply:
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending work and stops the goroutine.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports the last completed sequence number and the number of
// failed writes so far.
func (w *Writer) Stats() (written uint64, failures int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written, w.failures
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case reply := <-w.flushCh:
			w.drain()
			close(reply)
		case <-w.stop:
			w.drain()
			return
		}
	}
}

// drain writes until the pending slot is empty.
func (w *Writer) drain() {
	for {
		w.mu.Lock()
		o := w.pending
		w.pending = nil
		w.mu.Unlock()

		if o == nil {
			return
		}
		w.write(*o)
	}
}

func (w *Writer) write(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	if o.remove {
		err = w.kv.Remove(ctx, w.key)
	} else {
		err = w.kv.Set(ctx, w.key, o.value)
	}

	w.mu.Lock()
	w.written = o.seq
	if err != nil {
		w.failures++
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("failed to persist", "key", w.key, "seq", o.seq, "error", errors.Join(domain.ErrPersistence, err))
		return
	}
	w.logger.Debug("persisted", "key", w.key, "seq", o.seq)
}
