package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// Summary holds the derived figures for one calendar month.
type Summary struct {
	Year              int              `json:"year"`
	Month             int              `json:"month"` // 1-12
	MonthlyIncome     Money            `json:"monthly_income"`
	MonthlyExpenses   Money            `json:"monthly_expenses"`
	Balance           Money            `json:"balance"` // all-time, may be negative
	CategoryBreakdown []CategoryAmount `json:"category_breakdown"`
}

// Summarize computes the summary for the calendar month containing now.
// The month is read in now's location, so callers pick the viewer's zone by
// converting now before the call.
func Summarize(txs []Transaction, now time.Time) Summary {
	return SummarizeMonth(txs, now.Year(), int(now.Month()))
}

// SummarizeMonth computes the summary for the given year and month.
// Balance always covers every transaction regardless of date.
func SummarizeMonth(txs []Transaction, year, month int) Summary {
	s := Summary{
		Year:              year,
		Month:             month,
		CategoryBreakdown: []CategoryAmount{},
	}
	index := map[string]int{}
	for _, t := range txs {
		s.Balance.Cents += t.Signed()
		if !t.Date.InMonth(year, month) {
			continue
		}
		switch t.Type {
		case Income:
			s.MonthlyIncome = s.MonthlyIncome.Add(t.Amount)
		case Expense:
			s.MonthlyExpenses = s.MonthlyExpenses.Add(t.Amount)
			i, ok := index[t.Category]
			if !ok {
				i = len(s.CategoryBreakdown)
				index[t.Category] = i
				s.CategoryBreakdown = append(s.CategoryBreakdown, CategoryAmount{Name: t.Category})
			}
			s.CategoryBreakdown[i].Amount = s.CategoryBreakdown[i].Amount.Add(t.Amount)
		}
	}
	return s
}

// Breakdown returns the category breakdown as a map.
func (s Summary) Breakdown() map[string]Money {
	out := make(map[string]Money, len(s.CategoryBreakdown))
	for _, c := range s.CategoryBreakdown {
		out[c.Name] = c.Amount
	}
	return out
}

// Expenses returns the expense transactions of txs, preserving order.
func Expenses(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type == Expense {
			out = append(out, t)
		}
	}
	return out
}

// InMonth returns the transactions dated in the given year and month.
func InMonth(txs []Transaction, year, month int) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Date.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out
}
