package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/narration"
	"fintrack/internal/services"
)

const analyzeTimeout = 2 * time.Minute

// withApp opens the application, runs fn and closes it, flushing pending
// writes. A failed flush is reported if fn itself succeeded.
func withApp(ctx context.Context, fn func(*cli.App) error) (err error) {
	app, err := cli.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("save transactions: %w", cerr)
		}
	}()
	return fn(app)
}

func transactionService(app *cli.App) *services.TransactionService {
	return services.NewTransactionService(app.Repo, app.Location, app.Logger)
}

func insightService(ctx context.Context, app *cli.App) (*services.InsightService, *cache.LRUCache[string], error) {
	gen, err := backend.NewGenerator(ctx, app.Config, app.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create AI client: %w", err)
	}
	c := cache.NewLRUCache[string](app.Config.InsightCacheSize, app.Config.InsightCacheTTL)
	return services.NewInsightService(app.Repo, narration.New(gen, app.Logger), c, app.Logger), c, nil
}

func runAdd(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("add", "-desc TEXT -amount N [-date YYYY-MM-DD] [-type expense|income] [-category NAME]")
	desc := fs.String("desc", "", "description")
	amount := fs.String("amount", "", "amount, e.g. 25.50 or 25,50")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	typ := fs.String("type", string(core.Expense), "expense or income")
	category := fs.String("category", "", "category, ignored for income")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n := core.NewTransaction{Description: *desc, Category: *category}
	var err error
	if n.Amount, err = core.ParseMoney(*amount); err != nil {
		return fmt.Errorf("%w: %q", err, *amount)
	}
	if n.Type, err = core.ParseTransactionType(*typ); err != nil {
		return err
	}
	if *date != "" {
		if n.Date, err = core.ParseDate(*date); err != nil {
			return err
		}
	}

	return withApp(ctx, func(app *cli.App) error {
		svc := transactionService(app)
		if n.Date.IsZero() {
			n.Date = svc.Today()
		}
		t, err := svc.Create(ctx, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %s\n", t.ID)
		return printTransactions(out, []core.Transaction{t})
	})
}

func runEdit(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("edit", "-id ID [-desc TEXT] [-amount N] [-date YYYY-MM-DD] [-type expense|income] [-category NAME]")
	id := fs.String("id", "", "transaction id")
	desc := fs.String("desc", "", "new description")
	amount := fs.String("amount", "", "new amount")
	date := fs.String("date", "", "new date")
	typ := fs.String("type", "", "new type")
	category := fs.String("category", "", "new category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("edit: -id is required")
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	return withApp(ctx, func(app *cli.App) error {
		svc := transactionService(app)
		existing, err := svc.Get(*id)
		if err != nil {
			return err
		}

		n := existing.Fields()
		if set["desc"] {
			n.Description = *desc
		}
		if set["category"] {
			n.Category = *category
		}
		if set["amount"] {
			if n.Amount, err = core.ParseMoney(*amount); err != nil {
				return fmt.Errorf("%w: %q", err, *amount)
			}
		}
		if set["date"] {
			if n.Date, err = core.ParseDate(*date); err != nil {
				return err
			}
		}
		if set["type"] {
			if n.Type, err = core.ParseTransactionType(*typ); err != nil {
				return err
			}
			// An income carries the fixed income label, never a spending category.
			if n.Type == core.Expense && existing.Type == core.Income && !set["category"] {
				return fmt.Errorf("edit: -category is required when turning an income into an expense: %w", core.ErrEmptyCategory)
			}
		}

		t, err := svc.Update(ctx, *id, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s\n", t.ID)
		return printTransactions(out, []core.Transaction{t})
	})
}

func runRemove(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("rm", "-id ID")
	id := fs.String("id", "", "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("rm: -id is required")
	}

	return withApp(ctx, func(app *cli.App) error {
		if err := transactionService(app).Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %s\n", *id)
		return nil
	})
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("list", "[-month YYYY-MM]")
	month := fs.String("month", "", "only show this month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var year, mon int
	if *month != "" {
		var err error
		if year, mon, err = parseMonth(*month); err != nil {
			return err
		}
	}

	return withApp(ctx, func(app *cli.App) error {
		svc := transactionService(app)
		txs := svc.List()
		if *month != "" {
			var err error
			if txs, err = svc.ListMonth(year, mon); err != nil {
				return err
			}
		}
		if len(txs) == 0 {
			fmt.Fprintln(out, "No transactions.")
			return nil
		}
		return printTransactions(out, txs)
	})
}

func runSummary(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("summary", "[-month YYYY-MM]")
	month := fs.String("month", "", "month to summarize (default current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var year, mon int
	if *month != "" {
		var err error
		if year, mon, err = parseMonth(*month); err != nil {
			return err
		}
	}

	return withApp(ctx, func(app *cli.App) error {
		svc := transactionService(app)
		s := svc.Summary()
		if *month != "" {
			var err error
			if s, err = svc.MonthSummary(year, mon); err != nil {
				return err
			}
		}
		return printSummary(out, s)
	})
}

func runAnalyze(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("analyze", "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(ctx, func(app *cli.App) error {
		svc, _, err := insightService(ctx, app)
		if err != nil {
			return err
		}
		actx, cancel := context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()
		fmt.Fprintln(out, svc.Analyze(actx))
		return nil
	})
}

// parseMonth parses YYYY-MM.
func parseMonth(s string) (year, month int, err error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	year, err = strconv.Atoi(y)
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, fmt.Errorf("invalid month %q: bad year", s)
	}
	month, err = strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q: month must be 1-12", s)
	}
	return year, month, nil
}
