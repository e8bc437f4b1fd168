package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestOpenAndClosePersists(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("API_KEY", "")

	ctx := context.Background()
	app, err := Open(ctx)
	require.NoError(t, err)
	app.Repo.Add(ctx, core.NewTransaction{
		Description: "Lunch", Amount: core.Money{Cents: 2550},
		Date: core.NewDate(2026, 10, 17), Type: core.Expense, Category: "Food",
	})
	require.NoError(t, app.Close(ctx))

	_, err = os.Stat(filepath.Join(dir, "data", "transactions.json"))
	require.NoError(t, err)

	again, err := Open(ctx)
	require.NoError(t, err)
	defer again.Close(ctx)
	assert.Equal(t, 1, again.Repo.Len())
}

func TestOpenLogsStartup(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AI_API_KEY", "")

	logFile, err := os.Create(filepath.Join(dir, "stderr.log"))
	require.NoError(t, err)
	defer logFile.Close()
	stderr, prev := os.Stderr, slog.Default()
	os.Stderr = logFile
	t.Cleanup(func() {
		os.Stderr = stderr
		slog.SetDefault(prev)
	})

	ctx := context.Background()
	app, err := Open(ctx)
	require.NoError(t, err)
	require.NoError(t, app.Close(ctx))
	os.Stderr = stderr

	_, err = logFile.Seek(0, 0)
	require.NoError(t, err)
	var startup map[string]any
	sc := bufio.NewScanner(logFile)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry), sc.Text())
		if entry[log.FieldOperation] == log.OpStartup {
			startup = entry
		}
	}
	require.NotNil(t, startup, "no startup entry logged")
	assert.Equal(t, log.ComponentCLI, startup[log.FieldComponent])
	assert.Equal(t, "memory", startup[log.FieldBackend])
	assert.Equal(t, float64(0), startup[log.FieldCount])
}

func TestOpenInvalidConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATA_BACKEND", "postgres")

	_, err := Open(context.Background())
	assert.ErrorContains(t, err, "invalid data backend")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".env", []byte("FINTRACK_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("FINTRACK_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("FINTRACK_TEST_VALUE"))

	LoadEnvFile()

	assert.Equal(t, "from-dotenv", os.Getenv("FINTRACK_TEST_VALUE"))
}
