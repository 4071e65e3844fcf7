// Package logger emits structured JSON log lines with client contact
// details redacted before they reach the log stream.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes one JSON object per entry. Fields are alternating
// key/value pairs; values land in the entry as strings.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	redactPII bool
}

var std = &Logger{out: os.Stderr, level: INFO, redactPII: true}

// SetLevel sets the minimum level the package-level logger emits.
func SetLevel(l Level) { std.level = l }

// SetRedactPII toggles contact-field masking on the package-level logger.
func SetRedactPII(r bool) { std.redactPII = r }

// Debug emits a DEBUG entry.
func Debug(msg string, fields ...interface{}) { std.emit(DEBUG, msg, fields...) }

// Info emits an INFO entry.
func Info(msg string, fields ...interface{}) { std.emit(INFO, msg, fields...) }

// Warn emits a WARN entry.
func Warn(msg string, fields ...interface{}) { std.emit(WARN, msg, fields...) }

// Error emits an ERROR entry.
func Error(msg string, fields ...interface{}) { std.emit(ERROR, msg, fields...) }

func (l *Logger) emit(level Level, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}

	entry := make(map[string]interface{}, 3+len(fields)/2)
	entry["time"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level.String()
	entry["msg"] = msg

	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		if l.redactPII {
			val = sanitize(key, val)
		}
		entry[key] = val
	}

	line, _ := json.Marshal(entry)
	l.mu.Lock()
	fmt.Fprintln(l.out, string(line))
	l.mu.Unlock()
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func sanitize(key, val string) string {
	k := strings.ToLower(key)
	if strings.Contains(k, "email") || strings.Contains(k, "recipient") {
		return RedactEmail(val)
	}
	if strings.Contains(k, "phone") {
		return RedactPhone(val)
	}
	// Catch addresses embedded in free-form values too.
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
