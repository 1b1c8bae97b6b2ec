// Package logging provides structured JSON-line logging with trace IDs.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	// Context-aware variants pick up the trace ID stored in ctx.
	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithComponent(component string) Logger
}

// Level represents logging severity levels.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// ParseLevel converts a level name to a Level, defaulting to INFO.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

type contextKey string

const traceIDKey contextKey = "trace_id"

// NewTraceID generates a fresh trace ID.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID returns a context carrying the given trace ID, generating one
// when empty.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from ctx, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type structuredLogger struct {
	level     Level
	component string
	useJSON   bool
}

// New creates a logger writing one entry per line to stdout. Output is JSON
// unless LOG_JSON is set to false.
func New(level Level) Logger {
	return &structuredLogger{
		level:   level,
		useJSON: os.Getenv("LOG_JSON") != "false" && os.Getenv("LOG_JSON") != "0",
	}
}

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() Logger {
	return &structuredLogger{level: ERROR + 1}
}

func (l *structuredLogger) WithComponent(component string) Logger {
	return &structuredLogger{
		level:     l.level,
		component: component,
		useJSON:   l.useJSON,
	}
}

func (l *structuredLogger) Debug(msg string, fields ...interface{}) {
	l.log(DEBUG, "DEBUG", msg, "", fields...)
}

func (l *structuredLogger) Info(msg string, fields ...interface{}) {
	l.log(INFO, "INFO", msg, "", fields...)
}

func (l *structuredLogger) Warn(msg string, fields ...interface{}) {
	l.log(WARN, "WARN", msg, "", fields...)
}

func (l *structuredLogger) Error(msg string, fields ...interface{}) {
	l.log(ERROR, "ERROR", msg, "", fields...)
}

func (l *structuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(DEBUG, "DEBUG", msg, TraceID(ctx), fields...)
}

func (l *structuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(INFO, "INFO", msg, TraceID(ctx), fields...)
}

func (l *structuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(WARN, "WARN", msg, TraceID(ctx), fields...)
}

func (l *structuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ERROR, "ERROR", msg, TraceID(ctx), fields...)
}

func (l *structuredLogger) log(level Level, name, msg, traceID string, fields ...interface{}) {
	if level < l.level {
		return
	}

	// Fields come as alternating key/value pairs.
	fieldMap := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		fieldMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     name,
		Message:   msg,
		TraceID:   traceID,
		Component: l.component,
		Fields:    fieldMap,
	}

	if l.useJSON {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	parts := []string{e.Timestamp, "[" + e.Level + "]"}
	if e.TraceID != "" {
		parts = append(parts, "trace:"+e.TraceID[:8])
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	parts = append(parts, e.Message)
	for k, v := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	fmt.Println(strings.Join(parts, " "))
}
