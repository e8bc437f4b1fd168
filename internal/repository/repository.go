// Package repository owns the in-memory transaction collection.
//
// The collection is kept sorted by date, newest first. Every mutation hands a
// snapshot to a background writer; storage failures are logged and never
// undo the in-memory change. Sync reports whether the writes made it.
package repository

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// Store is the durable mirror of the collection.
type Store interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
}

type Repository struct {
	mu     sync.RWMutex
	items  []core.Transaction
	newID  func() string
	logger *log.Logger
	writer *writer
}

type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// Open loads the stored collection and starts the writer. A missing or
// unreadable collection is logged and the repository starts empty.
func Open(ctx context.Context, s Store, opts ...Option) *Repository {
	r := &Repository{
		newID:  uuid.NewString,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent(log.ComponentRepository)

	items, err := s.Load(ctx)
	switch {
	case errors.Is(err, store.ErrSlotEmpty):
		r.logger.InfoContext(ctx, "No stored transactions, starting empty")
	case err != nil:
		r.logger.ErrorContext(ctx, "Failed to load transactions, starting empty",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
	default:
		r.items = items
		sortByDateDesc(r.items)
		r.logger.InfoContext(ctx, "Transactions loaded",
			log.FieldOperation, log.OpLoad,
			log.FieldCount, len(items))
	}

	r.writer = newWriter(s, r.logger)
	return r
}

// List returns a copy of the collection, newest first.
func (r *Repository) List() []core.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items)
}

// Get returns the transaction with the given id.
func (r *Repository) Get(id string) (core.Transaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.items[i], true
	}
	return core.Transaction{}, false
}

// Len returns the number of transactions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Add stores a new transaction under a fresh id and returns it. Among
// transactions with the same date the new one comes first.
func (r *Repository) Add(ctx context.Context, n core.NewTransaction) core.Transaction {
	r.mu.Lock()
	id := r.newID()
	for r.indexOf(id) >= 0 {
		id = r.newID()
	}
	t := n.Normalize().WithID(id)
	r.items = slices.Insert(r.items, 0, t)
	sortByDateDesc(r.items)
	r.persistLocked()
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Transaction added", log.NewFields().
		WithTransaction(t.ID, t.Description, t.Amount.Cents, t.Type.String(), t.Category).
		WithOperation(log.OpCreate).ToSlice()...)
	return t
}

// Update replaces every field of the transaction with t.ID. It reports
// whether such a transaction existed; when it did not, nothing changes.
func (r *Repository) Update(ctx context.Context, t core.Transaction) bool {
	r.mu.Lock()
	i := r.indexOf(t.ID)
	if i < 0 {
		r.mu.Unlock()
		r.logger.DebugContext(ctx, "Update of unknown transaction ignored", log.FieldTransactionID, t.ID)
		return false
	}
	t = t.Fields().Normalize().WithID(t.ID)
	r.items[i] = t
	sortByDateDesc(r.items)
	r.persistLocked()
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Transaction updated", log.NewFields().
		WithTransaction(t.ID, t.Description, t.Amount.Cents, t.Type.String(), t.Category).
		WithOperation(log.OpUpdate).ToSlice()...)
	return true
}

// Remove deletes the transaction with the given id and reports whether it
// existed.
func (r *Repository) Remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		r.logger.DebugContext(ctx, "Remove of unknown transaction ignored", log.FieldTransactionID, id)
		return false
	}
	r.items = slices.Delete(r.items, i, i+1)
	r.persistLocked()
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Transaction removed",
		log.FieldTransactionID, id,
		log.FieldOperation, log.OpDelete)
	return true
}

// Sync blocks until every mutation made so far has been written and returns
// the error of the latest write, if any.
func (r *Repository) Sync(ctx context.Context) error {
	return r.writer.sync(ctx)
}

// Close flushes pending writes and stops the writer. The repository stays
// readable; later mutations are kept in memory only.
func (r *Repository) Close(ctx context.Context) error {
	return r.writer.close(ctx)
}

func (r *Repository) persistLocked() {
	r.writer.enqueue(slices.Clone(r.items))
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(t core.Transaction) bool { return t.ID == id })
}

func sortByDateDesc(items []core.Transaction) {
	slices.SortStableFunc(items, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
}
