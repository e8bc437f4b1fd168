package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrNotFound is returned when no transaction has the requested id.
var ErrNotFound = errors.New("transaction not found")

// ErrInvalidMonth is returned for a month outside 1-12.
var ErrInvalidMonth = errors.New("invalid month")

// Repository is the transaction collection the services drive.
type Repository interface {
	List() []core.Transaction
	Get(id string) (core.Transaction, bool)
	Add(ctx context.Context, n core.NewTransaction) core.Transaction
	Update(ctx context.Context, t core.Transaction) bool
	Remove(ctx context.Context, id string) bool
}

// TransactionService validates input before it reaches the repository and
// computes summaries in the viewer's time zone.
type TransactionService struct {
	repo   Repository
	loc    *time.Location
	now    func() time.Time
	logger *log.Logger
}

func NewTransactionService(repo Repository, loc *time.Location, logger *log.Logger) *TransactionService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		repo:   repo,
		loc:    loc,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentService),
	}
}

// SetClock replaces the time source.
func (s *TransactionService) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the current time in the viewer's location.
func (s *TransactionService) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns the viewer's current calendar date.
func (s *TransactionService) Today() core.Date {
	return core.DateOf(s.Now())
}

func (s *TransactionService) List() []core.Transaction {
	txs := s.repo.List()
	s.logger.Debug("Listed transactions", log.FieldOperation, log.OpList, log.FieldCount, len(txs))
	return txs
}

// ListMonth returns the transactions dated in the given month, newest first.
func (s *TransactionService) ListMonth(year, month int) ([]core.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	txs := core.InMonth(s.repo.List(), year, month)
	s.logger.Debug("Listed transactions",
		log.FieldOperation, log.OpList,
		"year", year,
		"month", month,
		log.FieldCount, len(txs))
	return txs, nil
}

func (s *TransactionService) Get(id string) (core.Transaction, error) {
	t, ok := s.repo.Get(id)
	if !ok {
		s.logger.Debug("Transaction not found", log.FieldOperation, log.OpRead, log.FieldTransactionID, id)
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Create validates n and adds it to the collection.
func (s *TransactionService) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Rejected transaction",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err)
		return core.Transaction{}, err
	}
	t := s.repo.Add(ctx, n)
	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithTransaction(t.ID, t.Description, t.Amount.Cents, t.Type.String(), t.Category).
		WithOperation(log.OpCreate).ToSlice()...)
	return t, nil
}

// Update replaces every field of the transaction with the given id.
func (s *TransactionService) Update(ctx context.Context, id string, n core.NewTransaction) (core.Transaction, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Rejected transaction update",
			log.FieldOperation, log.OpUpdate,
			log.FieldTransactionID, id,
			log.FieldError, err)
		return core.Transaction{}, err
	}
	t := n.WithID(id)
	if !s.repo.Update(ctx, t) {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithTransaction(t.ID, t.Description, t.Amount.Cents, t.Type.String(), t.Category).
		WithOperation(log.OpUpdate).ToSlice()...)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if !s.repo.Remove(ctx, id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	return nil
}

// Summary aggregates the viewer's current month.
func (s *TransactionService) Summary() core.Summary {
	sum := core.Summarize(s.repo.List(), s.Now())
	s.logSummary(sum)
	return sum
}

// MonthSummary aggregates an arbitrary month. Balance stays all-time.
func (s *TransactionService) MonthSummary(year, month int) (core.Summary, error) {
	if month < 1 || month > 12 {
		return core.Summary{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	sum := core.SummarizeMonth(s.repo.List(), year, month)
	s.logSummary(sum)
	return sum, nil
}

func (s *TransactionService) logSummary(sum core.Summary) {
	s.logger.Debug("Computed summary",
		log.FieldOperation, log.OpSummary,
		"year", sum.Year,
		"month", sum.Month,
		"income_cents", sum.MonthlyIncome.Cents,
		"expenses_cents", sum.MonthlyExpenses.Cents,
		"categories", len(sum.CategoryBreakdown))
}
