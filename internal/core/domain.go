package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// IncomeCategory is the label every income transaction is filed under.
const IncomeCategory = "Income"

const dateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	TransactionType string

	// Date is a calendar date. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// NewTransaction is the user-supplied part of a transaction.
	NewTransaction struct {
		Description string
		Amount      Money
		Date        Date
		Type        TransactionType
		Category    string
	}

	Transaction struct {
		ID          string
		Description string
		Amount      Money
		Date        Date
		Type        TransactionType
		Category    string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
)

// IsValidationError reports whether err comes from rejected transaction input.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrInvalidDate, ErrInvalidAmount, ErrInvalidType, ErrEmptyDescription, ErrEmptyCategory, ErrDescriptionLong} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. For timestamps only
// the date part, as written, is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// InMonth reports whether d falls in the given year and month (1-12).
func (d Date) InMonth(year, month int) bool {
	return d.Year() == year && int(d.Month()) == month
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize trims the free-text fields and forces the income category.
func (n NewTransaction) Normalize() NewTransaction {
	n.Description = strings.TrimSpace(n.Description)
	n.Category = strings.TrimSpace(n.Category)
	if n.Type == Income {
		n.Category = IncomeCategory
	}
	return n
}

func (n NewTransaction) Validate() error {
	if len(strings.TrimSpace(n.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(n.Description) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if err := n.Date.Validate(); err != nil {
		return err
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, n.Type)
	}
	if n.Type == Expense && strings.TrimSpace(n.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// WithID attaches an identifier to the user-supplied fields.
func (n NewTransaction) WithID(id string) Transaction {
	return Transaction{
		ID:          id,
		Description: n.Description,
		Amount:      n.Amount,
		Date:        n.Date,
		Type:        n.Type,
		Category:    n.Category,
	}
}

// Fields returns the user-supplied part of t.
func (t Transaction) Fields() NewTransaction {
	return NewTransaction{
		Description: t.Description,
		Amount:      t.Amount,
		Date:        t.Date,
		Type:        t.Type,
		Category:    t.Category,
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("empty id")
	}
	return t.Fields().Validate()
}

// Signed returns the amount with the sign implied by the type.
func (t Transaction) Signed() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}
