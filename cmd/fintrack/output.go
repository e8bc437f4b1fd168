package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fintrack/internal/core"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printTransactions(out io.Writer, txs []core.Transaction) error {
	w := newTable(out)
	fmt.Fprintln(w, "DATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION\tID")
	for _, t := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Date, t.Type, t.Category, t.Amount, t.Description, t.ID)
	}
	return w.Flush()
}

func printSummary(out io.Writer, s core.Summary) error {
	w := newTable(out)
	fmt.Fprintf(w, "Month\t%04d-%02d\n", s.Year, s.Month)
	fmt.Fprintf(w, "Income\t%s\n", s.MonthlyIncome)
	fmt.Fprintf(w, "Expenses\t%s\n", s.MonthlyExpenses)
	fmt.Fprintf(w, "Balance\t%s\n", s.Balance)
	if len(s.CategoryBreakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "CATEGORY\tAMOUNT")
		for _, c := range s.CategoryBreakdown {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Amount)
		}
	}
	return w.Flush()
}
