package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"fintrack/internal/log"
)

//go:embed migrations/*.sql
var slotSchema embed.FS

// SchemaStatus reports the slot schema version before and after a migration run.
type SchemaStatus struct {
	Before uint
	After  uint
}

// Applied reports whether the run changed the schema.
func (s SchemaStatus) Applied() bool {
	return s.After != s.Before
}

// MigrateSlotSchema applies every pending slot schema migration to the
// database at dbPath. A fresh database reports Before as zero.
func MigrateSlotSchema(ctx context.Context, dbPath string, logger *log.Logger) (SchemaStatus, error) {
	if logger == nil {
		logger = log.Discard()
	}

	// The migrator closes its connection on Close, so it gets its own.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("open schema connection: %w", err)
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		conn.Close()
		return SchemaStatus{}, fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(slotSchema, "migrations")
	if err != nil {
		driver.Close()
		return SchemaStatus{}, fmt.Errorf("slot schema source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return SchemaStatus{}, fmt.Errorf("slot schema migrator: %w", err)
	}
	defer m.Close()

	var status SchemaStatus
	if status.Before, err = schemaVersion(m); err != nil {
		return status, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return status, fmt.Errorf("apply slot schema: %w", err)
	}
	if status.After, err = schemaVersion(m); err != nil {
		return status, err
	}

	level := logger.DebugContext
	if status.Applied() {
		level = logger.InfoContext
	}
	level(ctx, "Slot schema ready",
		"db_path", dbPath,
		"version_before", status.Before,
		"version_after", status.After)
	return status, nil
}

func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read slot schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("slot schema version %d is dirty", v)
	}
	return v, nil
}
