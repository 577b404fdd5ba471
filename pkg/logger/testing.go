package logger

import (
	"fmt"
	"sort"
	"testing"
)

// TestLogger routes log lines through t.Logf so they attach to the test
// that produced them. A nil T discards everything, which keeps services
// quiet in benchmarks and fuzz targets.
type TestLogger struct {
	T      *testing.T
	fields map[string]interface{}
}

// NewTestLogger creates a logger bound to the given test.
func NewTestLogger(t *testing.T) Logger {
	return &TestLogger{T: t}
}

func (l *TestLogger) log(level, msg string) {
	if l.T == nil {
		return
	}
	if len(l.fields) == 0 {
		l.T.Logf("[%s] %s", level, msg)
		return
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	line := msg
	for _, k := range keys {
		line += fmt.Sprintf(" %s=%v", k, l.fields[k])
	}
	l.T.Logf("[%s] %s", level, line)
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg) }

// WithField returns a child logger that appends key=value to every line.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	child := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		child[k] = v
	}
	child[key] = value
	return &TestLogger{T: l.T, fields: child}
}

// WithFields returns a child logger carrying all of the given fields.
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	child := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		child[k] = v
	}
	for k, v := range fields {
		child[k] = v
	}
	return &TestLogger{T: l.T, fields: child}
}
