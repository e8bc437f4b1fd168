// This file parses query parameters and request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidYear  = errors.New("invalid year")
	errInvalidMonth = errors.New("invalid month")
	errMalformed    = errors.New("malformed JSON body")
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from the query, defaulting each
// to now's. present reports whether either was given.
func ParseMonthParams(query url.Values, now time.Time) (params MonthParams, present bool, err error) {
	params = MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		present = true
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return params, present, fmt.Errorf("%w: %q", errInvalidYear, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		present = true
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, present, fmt.Errorf("%w: %q", errInvalidMonth, v)
		}
		params.Month = m
	}

	return params, present, nil
}

// transactionRequest is the body accepted by create and update. Amount is
// kept raw so that a bad amount is a validation error, not a syntax error.
type transactionRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
}

// decodeJSONBody reads one JSON object from r into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errMalformed)
	}
	return nil
}

// toNewTransaction converts the body. A missing date means today and a
// missing type means expense.
func (req transactionRequest) toNewTransaction(today core.Date) (core.NewTransaction, error) {
	n := core.NewTransaction{
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Date:        today,
		Type:        core.Expense,
	}

	if len(req.Amount) == 0 || string(req.Amount) == "null" {
		return n, core.ErrInvalidAmount
	}
	if err := json.Unmarshal(req.Amount, &n.Amount); err != nil {
		return n, core.ErrInvalidAmount
	}

	if v := strings.TrimSpace(req.Date); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return n, err
		}
		n.Date = d
	}

	if v := strings.TrimSpace(req.Type); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			return n, err
		}
		n.Type = t
	}

	return n, nil
}
