package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Logger is the logging surface handed to pipeline components. The
// production implementation writes JSON lines; tests inject Nop.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var minLevel atomic.Int32

func init() {
	minLevel.Store(levelInfo)
}

// Configure sets the minimum emitted level from a LOG_LEVEL-style name.
// Unknown names fall back to info. Called once at process start.
func Configure(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		minLevel.Store(levelDebug)
	case "warn", "warning":
		minLevel.Store(levelWarn)
	case "error":
		minLevel.Store(levelError)
	default:
		minLevel.Store(levelInfo)
	}
}

// Std writes JSON log lines to stdout.
type Std struct{}

func (Std) Debug(msg string, fields map[string]any) { write(levelDebug, "debug", msg, fields) }
func (Std) Info(msg string, fields map[string]any)  { write(levelInfo, "info", msg, fields) }
func (Std) Warn(msg string, fields map[string]any)  { write(levelWarn, "warn", msg, fields) }
func (Std) Error(msg string, fields map[string]any) { write(levelError, "error", msg, fields) }

// Nop discards all log lines.
type Nop struct{}

func (Nop) Debug(string, map[string]any) {}
func (Nop) Info(string, map[string]any)  {}
func (Nop) Warn(string, map[string]any)  {}
func (Nop) Error(string, map[string]any) {}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) { Std{}.Debug(msg, fields) }

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) { Std{}.Info(msg, fields) }

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) { Std{}.Warn(msg, fields) }

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) { Std{}.Error(msg, fields) }

func write(level int32, name, msg string, fields map[string]any) {
	if level < minLevel.Load() {
		return
	}
	entry := make(map[string]any, len(fields)+3)
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = name
	entry["msg"] = msg
	for k, v := range fields {
		entry[k] = v
	}
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stdout, `{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`+"\n", time.Now().UTC().Format(time.RFC3339), err.Error())
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}
