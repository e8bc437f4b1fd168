package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string, typ TransactionType, cents int64, d Date, category string) Transaction {
	return Transaction{ID: id, Description: id, Amount: Money{Cents: cents}, Date: d, Type: typ, Category: category}
}

func TestSummarizeScenario(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	today := DateOf(now)
	txs := []Transaction{
		tx("salary", Income, 300000, today, IncomeCategory),
		tx("lunch", Expense, 2550, today, "Food"),
	}

	s := Summarize(txs, now)

	assert.Equal(t, int64(2550), s.MonthlyExpenses.Cents)
	assert.Equal(t, int64(300000), s.MonthlyIncome.Cents)
	assert.Equal(t, int64(297450), s.Balance.Cents)
	assert.Equal(t, map[string]Money{"Food": {Cents: 2550}}, s.Breakdown())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())

	assert.Zero(t, s.MonthlyIncome.Cents)
	assert.Zero(t, s.MonthlyExpenses.Cents)
	assert.Zero(t, s.Balance.Cents)
	assert.Empty(t, s.CategoryBreakdown)
	assert.NotNil(t, s.CategoryBreakdown)
}

func TestSummarizeExcludesOtherMonths(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx("a", Expense, 1000, NewDate(2026, 10, 1), "Food"),
		tx("b", Expense, 500, NewDate(2026, 9, 30), "Food"),
		tx("c", Expense, 700, NewDate(2025, 10, 17), "Rent"),
		tx("d", Income, 9000, NewDate(2026, 11, 1), IncomeCategory),
		tx("e", Income, 4000, NewDate(2026, 10, 31), IncomeCategory),
	}

	s := Summarize(txs, now)

	assert.Equal(t, int64(1000), s.MonthlyExpenses.Cents)
	assert.Equal(t, int64(4000), s.MonthlyIncome.Cents)
	assert.Equal(t, map[string]Money{"Food": {Cents: 1000}}, s.Breakdown())
	// balance covers every month
	assert.Equal(t, int64(9000+4000-1000-500-700), s.Balance.Cents)
}

func TestSummarizeBalanceMatchesTotals(t *testing.T) {
	txs := []Transaction{
		tx("a", Income, 12345, NewDate(2020, 1, 1), IncomeCategory),
		tx("b", Expense, 999, NewDate(2021, 5, 5), "Fun"),
		tx("c", Expense, 20000, NewDate(2026, 10, 5), "Rent"),
		tx("d", Income, 1, NewDate(2030, 2, 2), IncomeCategory),
	}
	var income, expenses int64
	for _, x := range txs {
		if x.Type == Income {
			income += x.Amount.Cents
		} else {
			expenses += x.Amount.Cents
		}
	}

	for _, now := range []time.Time{
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		assert.Equal(t, income-expenses, Summarize(txs, now).Balance.Cents)
	}
}

func TestSummarizeBreakdownFirstSeenOrder(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, 100, NewDate(2026, 10, 3), "Transport"),
		tx("b", Expense, 200, NewDate(2026, 10, 2), "Food"),
		tx("c", Income, 999, NewDate(2026, 10, 2), IncomeCategory),
		tx("d", Expense, 300, NewDate(2026, 10, 1), "Transport"),
	}

	s := SummarizeMonth(txs, 2026, 10)

	require.Len(t, s.CategoryBreakdown, 2)
	assert.Equal(t, CategoryAmount{Name: "Transport", Amount: Money{Cents: 400}}, s.CategoryBreakdown[0])
	assert.Equal(t, CategoryAmount{Name: "Food", Amount: Money{Cents: 200}}, s.CategoryBreakdown[1])
	assert.Equal(t, 2026, s.Year)
	assert.Equal(t, 10, s.Month)
}

func TestSummarizeUsesLocationOfNow(t *testing.T) {
	// 2026-11-01 02:00 UTC is still October in Sao Paulo (UTC-3).
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2026, 11, 1, 2, 0, 0, 0, time.UTC)
	txs := []Transaction{tx("a", Expense, 100, NewDate(2026, 10, 31), "Food")}

	assert.Equal(t, int64(0), Summarize(txs, now).MonthlyExpenses.Cents)
	assert.Equal(t, int64(100), Summarize(txs, now.In(loc)).MonthlyExpenses.Cents)
}

func TestExpensesAndInMonth(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, 100, NewDate(2026, 10, 3), "Food"),
		tx("b", Income, 200, NewDate(2026, 9, 2), IncomeCategory),
		tx("c", Expense, 300, NewDate(2026, 9, 1), "Food"),
	}

	exp := Expenses(txs)
	require.Len(t, exp, 2)
	assert.Equal(t, "a", exp[0].ID)
	assert.Equal(t, "c", exp[1].ID)

	sept := InMonth(txs, 2026, 9)
	require.Len(t, sept, 2)
	assert.Equal(t, "b", sept[0].ID)
}

func TestSummarizeLargestAmountsDoNotOverflow(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	today := DateOf(now)

	top, err := ParseMoney("1000000000000")
	require.NoError(t, err)
	require.Equal(t, MaxAmountCents, top.Cents)

	const n = 10000
	txs := make([]Transaction, 0, 2*n)
	for i := 0; i < n; i++ {
		txs = append(txs,
			tx("in", Income, top.Cents, today, IncomeCategory),
			tx("out", Expense, top.Cents-1, today, "Food"))
	}

	s := Summarize(txs, now)

	assert.Equal(t, n*MaxAmountCents, s.MonthlyIncome.Cents)
	assert.Equal(t, n*(MaxAmountCents-1), s.MonthlyExpenses.Cents)
	assert.Equal(t, int64(n), s.Balance.Cents)
	assert.Equal(t, n*(MaxAmountCents-1), s.Breakdown()["Food"].Cents)
}
