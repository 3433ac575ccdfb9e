package logger

import (
	"encoding/json"
	"io"
	"log"
	"maps"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Logger writes one JSON object per line. Safe for concurrent use.
type Logger struct {
	level  Level
	mu     sync.Mutex
	logger *log.Logger
	base   map[string]any
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a logger writing to output (stdout when nil).
func New(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	return &Logger{
		level:  ParseLevel(level),
		logger: log.New(output, "", 0),
	}
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.base)+len(fields))
	maps.Copy(merged, l.base)
	maps.Copy(merged, fields)

	return &Logger{
		level:  l.level,
		logger: l.logger,
		base:   merged,
	}
}

// ParseLevel converts a level name to a Level, defaulting to INFO.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (lv Level) String() string {
	switch lv {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l *Logger) write(level Level, message string, fields map[string]any) {
	if l.level > level {
		return
	}

	if len(l.base) > 0 {
		merged := make(map[string]any, len(l.base)+len(fields))
		maps.Copy(merged, l.base)
		maps.Copy(merged, fields)
		fields = merged
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Fields:    fields,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if data, err := json.Marshal(entry); err == nil {
		l.logger.Println(string(data))
	} else {
		l.logger.Printf("[%s] %s", entry.Level, message)
	}
}

func firstFields(fields []map[string]any) map[string]any {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.write(DEBUG, message, firstFields(fields))
}

func (l *Logger) Info(message string, fields ...map[string]any) {
	l.write(INFO, message, firstFields(fields))
}

func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.write(WARN, message, firstFields(fields))
}

func (l *Logger) Error(message string, fields ...map[string]any) {
	l.write(ERROR, message, firstFields(fields))
}

// Task logs an event about a background task execution.
func (l *Logger) Task(taskID, message string, fields ...map[string]any) {
	allFields := map[string]any{
		"task_id": taskID,
		"type":    "task",
	}
	if f := firstFields(fields); f != nil {
		maps.Copy(allFields, f)
	}

	l.write(INFO, message, allFields)
}

// Job logs an event about a sequence search job, keyed by its sequence hash.
func (l *Logger) Job(sequenceHash, message string, fields ...map[string]any) {
	allFields := map[string]any{
		"sequence_hash": sequenceHash,
		"type":          "job",
	}
	if f := firstFields(fields); f != nil {
		maps.Copy(allFields, f)
	}

	l.write(INFO, message, allFields)
}

func (l *Logger) HTTP(method, path string, statusCode int, duration time.Duration, fields ...map[string]any) {
	allFields := map[string]any{
		"http_method": method,
		"http_path":   path,
		"http_status": statusCode,
		"duration_ns": duration.Nanoseconds(),
		"type":        "http_request",
	}
	if f := firstFields(fields); f != nil {
		maps.Copy(allFields, f)
	}

	l.write(INFO, "HTTP request completed", allFields)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New("ERROR", io.Discard)
}
