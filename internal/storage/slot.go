package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/log"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteSlot keeps one named value in the slots table of a SQLite database.
type SQLiteSlot struct {
	db     *sql.DB
	name   string
	schema SchemaStatus
	logger *log.Logger
}

// NewSQLiteSlot opens (and migrates) the database at dbPath. A nil logger
// discards.
func NewSQLiteSlot(ctx context.Context, dbPath, name string, logger *log.Logger) (*SQLiteSlot, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("slot name cannot be empty")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	status, err := MigrateSlotSchema(ctx, dbPath, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate slot schema: %w", err)
	}

	return &SQLiteSlot{db: db, name: name, schema: status, logger: logger}, nil
}

// Schema reports what the migration run at open time did.
func (s *SQLiteSlot) Schema() SchemaStatus {
	return s.schema
}

func (s *SQLiteSlot) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load implements store.Slot
func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, s.name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", s.name, err)
	}
	return []byte(value), nil
}

// Save implements store.Slot
func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.name, string(data))
	if err != nil {
		return fmt.Errorf("save slot %s: %w", s.name, err)
	}

	s.logger.DebugContext(ctx, "Slot saved to SQLite",
		log.FieldOperation, log.OpSave,
		"slot", s.name,
		"bytes", len(data))
	return nil
}
