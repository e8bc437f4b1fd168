package repository

import (
	"context"
	"errors"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

var errWriterClosed = errors.New("writer closed")

// writer persists collection snapshots off the caller's path. Only the most
// recent snapshot is kept, so a burst of mutations costs one write.
type writer struct {
	store  Store
	logger *log.Logger

	mu       sync.Mutex
	pending  []core.Transaction
	queued   uint64 // generation of the newest snapshot handed in
	written  uint64 // generation of the newest snapshot written (or attempted)
	lastErr  error
	progress chan struct{} // closed and replaced after every attempt
	closed   bool

	wake chan struct{}
	done chan struct{}
}

func newWriter(store Store, logger *log.Logger) *writer {
	w := &writer{
		store:    store,
		logger:   logger,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue hands a snapshot to the writer. It never blocks on I/O.
func (w *writer) enqueue(snapshot []core.Transaction) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("Dropping save after close", log.FieldCount, len(snapshot))
		return
	}
	w.pending = snapshot
	w.queued++
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

func (w *writer) run() {
	defer close(w.done)
	for range w.wake {
		w.flushPending()
	}
}

func (w *writer) flushPending() {
	w.mu.Lock()
	if w.written == w.queued {
		w.mu.Unlock()
		return
	}
	snapshot, gen := w.pending, w.queued
	w.pending = nil
	w.mu.Unlock()

	err := w.store.Save(context.Background(), snapshot)
	if err != nil {
		w.logger.Error("Failed to persist transactions",
			log.FieldOperation, log.OpSave,
			log.FieldCount, len(snapshot),
			log.FieldError, err)
	} else {
		w.logger.Debug("Transactions persisted",
			log.FieldOperation, log.OpSave,
			log.FieldCount, len(snapshot))
	}

	w.mu.Lock()
	w.written = gen
	w.lastErr = err
	close(w.progress)
	w.progress = make(chan struct{})
	w.mu.Unlock()
}

// sync waits until every snapshot queued before the call has been written
// and returns the result of the latest write.
func (w *writer) sync(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	for w.written < target {
		progress := w.progress
		w.mu.Unlock()
		select {
		case <-progress:
		case <-w.done:
			w.mu.Lock()
			if w.written < target {
				w.mu.Unlock()
				return errWriterClosed
			}
			w.mu.Unlock()
		case <-ctx.Done():
			return ctx.Err()
		}
		w.mu.Lock()
	}
	err := w.lastErr
	w.mu.Unlock()
	return err
}

// close flushes what is queued and stops the goroutine.
func (w *writer) close(ctx context.Context) error {
	err := w.sync(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return err
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
