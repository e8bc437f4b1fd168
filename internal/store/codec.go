package store

import (
	"context"
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

// record is the serialized form of a transaction.
type record struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        string     `json:"date"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
}

// TransactionStore mirrors the transaction collection into a Slot as JSON.
type TransactionStore struct {
	slot Slot
}

func NewTransactionStore(slot Slot) *TransactionStore {
	return &TransactionStore{slot: slot}
}

// Load reads the collection. It returns ErrSlotEmpty when nothing is stored
// and a decoding error when the stored text is corrupt.
func (s *TransactionStore) Load(ctx context.Context) ([]core.Transaction, error) {
	data, err := s.slot.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save overwrites the slot with the full collection.
func (s *TransactionStore) Save(ctx context.Context, txs []core.Transaction) error {
	data, err := Encode(txs)
	if err != nil {
		return err
	}
	return s.slot.Save(ctx, data)
}

// Encode serializes txs as a JSON array.
func Encode(txs []core.Transaction) ([]byte, error) {
	out := make([]record, len(txs))
	for i, t := range txs {
		out[i] = record{
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			Date:        t.Date.String(),
			Type:        t.Type.String(),
			Category:    t.Category,
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode transactions: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array written by Encode. Every record must be valid.
func Decode(data []byte) ([]core.Transaction, error) {
	var in []record
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, r := range in {
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", i, err)
		}
		typ, err := core.ParseTransactionType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", i, err)
		}
		t := core.Transaction{
			ID:          r.ID,
			Description: r.Description,
			Amount:      r.Amount,
			Date:        date,
			Type:        typ,
			Category:    r.Category,
		}
		if t.Type == core.Income {
			t.Category = core.IncomeCategory
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("decode transaction %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
