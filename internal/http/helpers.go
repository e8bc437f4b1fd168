package http

import (
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// transactionJSON is the wire form of a transaction.
type transactionJSON struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        string     `json:"date"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
}

func toJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Date:        t.Date.String(),
		Type:        t.Type.String(),
		Category:    t.Category,
	}
}

func toJSONList(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txs))
	for i, t := range txs {
		out[i] = toJSON(t)
	}
	return out
}
