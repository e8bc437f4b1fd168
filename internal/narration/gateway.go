// Package narration turns a list of expenses into a short prose analysis
// written by a text-generation service.
//
// Analyze never fails: a missing generator, an empty expense list or a
// failed call each map to a fixed message the caller can show as is.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	MessageDisabled         = "The AI API key is not configured. AI analysis is disabled."
	MessageNothingToAnalyze = "There are no expenses to analyze. Add some expense transactions first."
	MessageFailed           = "Something went wrong while analyzing your expenses. Please try again later."
)

var (
	ErrDisabled         = errors.New("narration disabled")
	ErrNothingToAnalyze = errors.New("no expenses to analyze")
	ErrEmptyResponse    = errors.New("generator returned empty response")
)

const promptTemplate = `You are an expert financial assistant. Analyze the following list of a user's expenses and give a concise summary of their spending habits.
After the summary, offer 2-3 practical, actionable tips to help the user save money, based specifically on the data provided.
Be friendly and encouraging. Format your answer in Markdown.

Expense list:
%s`

type Gateway struct {
	gen    Generator
	logger *log.Logger
}

// New returns a gateway over gen. A nil gen disables narration.
func New(gen Generator, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Discard()
	}
	return &Gateway{gen: gen, logger: logger.WithComponent(log.ComponentNarration)}
}

// Enabled reports whether a generator is configured.
func (g *Gateway) Enabled() bool {
	return g.gen != nil
}

// Analyze returns the generated analysis of the expenses in txs or one of
// the fixed messages.
func (g *Gateway) Analyze(ctx context.Context, txs []core.Transaction) string {
	text, err := g.Narrate(ctx, txs)
	if err != nil {
		return Message(err)
	}
	return text
}

// Narrate is Analyze with the failure cause exposed. Income records in txs
// are ignored.
func (g *Gateway) Narrate(ctx context.Context, txs []core.Transaction) (string, error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}
	expenses := core.Expenses(txs)
	if len(expenses) == 0 {
		return "", ErrNothingToAnalyze
	}

	text, err := g.gen.Generate(ctx, BuildPrompt(expenses))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		g.logger.ErrorContext(ctx, "Expense analysis failed",
			log.FieldOperation, log.OpAnalyze,
			log.FieldCount, len(expenses),
			log.FieldError, err)
		return "", fmt.Errorf("generate analysis: %w", err)
	}

	g.logger.InfoContext(ctx, "Expense analysis generated",
		log.FieldOperation, log.OpAnalyze,
		log.FieldCount, len(expenses))
	return text, nil
}

// Message maps a Narrate error to the text shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrDisabled):
		return MessageDisabled
	case errors.Is(err, ErrNothingToAnalyze):
		return MessageNothingToAnalyze
	default:
		return MessageFailed
	}
}

// BuildPrompt renders the instruction prompt for the given expenses, one
// line each in list order.
func BuildPrompt(expenses []core.Transaction) string {
	var b strings.Builder
	for i, t := range expenses {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s (%s) - %s", t.Date, t.Description, t.Category, t.Amount)
	}
	return fmt.Sprintf(promptTemplate, b.String())
}
