// Package store holds the persistent store adapter: a single named slot
// carrying the serialized transaction collection.
package store

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Slot.Load when nothing was ever saved.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot reads and overwrites one opaque value in full.
type Slot interface {
	// Load returns the last saved value, or ErrSlotEmpty.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored value.
	Save(ctx context.Context, data []byte) error
}
