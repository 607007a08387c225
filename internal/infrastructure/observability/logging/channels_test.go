package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T) (*ChanneledLogger, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.OutputToFile = true
	cfg.LogDirectory = dir

	logger, err := NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger, dir
}

func TestLogSlowQueryWritesDatabaseChannel(t *testing.T) {
	logger, dir := newFileLogger(t)

	logger.LogSlowQuery("SELECT id\nFROM investigations\tWHERE id = ?", 250*time.Millisecond)

	data, err := os.ReadFile(filepath.Join(dir, "database.log"))
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, "Slow query detected")
	assert.Contains(t, line, "SELECT id FROM investigations WHERE id = ?")
}

func TestSanitizeQueryTruncatesLongStatements(t *testing.T) {
	flat := sanitizeQuery(strings.Repeat("x", 600))

	assert.Len(t, flat, 503)
	assert.True(t, strings.HasSuffix(flat, "..."))
}
