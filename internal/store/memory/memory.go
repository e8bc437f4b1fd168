package memory

import (
	"context"
	"sync"

	"fintrack/internal/store"
)

// Slot keeps the value in process memory. Nothing survives a restart.
type Slot struct {
	mu    sync.Mutex
	data  []byte
	saves int
	err   error
}

func New() *Slot {
	return &Slot{}
}

// NewWithData returns a slot pre-seeded with data.
func NewWithData(data []byte) *Slot {
	return &Slot{data: append([]byte(nil), data...)}
}

// Load returns a copy of the stored value.
func (s *Slot) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, store.ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

// Save replaces the stored value, or returns the injected failure.
func (s *Slot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data = append([]byte{}, data...)
	s.saves++
	return nil
}

// FailSaves makes every following Save return err. Pass nil to recover.
func (s *Slot) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Saves returns the number of successful saves.
func (s *Slot) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
