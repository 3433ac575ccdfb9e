package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []logEntry {
	t.Helper()

	var entries []logEntry
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var e logEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	lg := New("WARN", &buf)

	lg.Debug("hidden")
	lg.Info("hidden too")
	lg.Warn("shown")
	lg.Error("also shown", map[string]any{"k": "v"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "v", entries[1].Fields["k"])
}

func TestLogger_JobAndTaskHelpers(t *testing.T) {
	var buf bytes.Buffer
	lg := New("DEBUG", &buf)

	lg.Job("abc123", "job submitted", map[string]any{"job_id": "ncbiblast-1"})
	lg.Task("task-1", "task started", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "abc123", entries[0].Fields["sequence_hash"])
	assert.Equal(t, "job", entries[0].Fields["type"])
	assert.Equal(t, "ncbiblast-1", entries[0].Fields["job_id"])

	assert.Equal(t, "task-1", entries[1].Fields["task_id"])
	assert.Equal(t, "task", entries[1].Fields["type"])
}

func TestLogger_WithAddsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	lg := New("INFO", &buf).With(map[string]any{"component": "worker"})

	lg.Info("hello", map[string]any{"worker_id": 2})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "worker", entries[0].Fields["component"])
	assert.Equal(t, float64(2), entries[0].Fields["worker_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" WARN "))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}
