// Package logging provides a small structured logger shared by every
// component of the gateway.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Config selects the destination and minimum severity for a Logger.
type Config struct {
	Level  string
	Root   string // display-level name kept separate from FilePath, per the Daemon/log config section
	File   string // file path; empty means stdout only
	Output io.Writer
}

// Logger is a component-scoped structured logger.
type Logger struct {
	level  Level
	logger *log.Logger
}

// Field is a single structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// New builds the root logger. If cfg.File is set, output is duplicated to
// that file in addition to cfg.Output (or stdout).
func New(cfg Config) (*Logger, error) {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = io.MultiWriter(output, f)
	}

	return &Logger{
		level:  parseLevel(cfg.Level),
		logger: log.New(output, "", log.LstdFlags),
	}, nil
}

// WithComponent returns a child logger that prefixes every line with the
// component name, e.g. "router", "backend.ysf".
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		level:  l.level,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", component), log.LstdFlags),
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, "DEBUG", msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, "INFO", msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, "WARN", msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, "ERROR", msg, fields...) }

func (l *Logger) emit(level Level, tag, msg string, fields ...Field) {
	if l.level > level {
		return
	}
	if len(fields) == 0 {
		l.logger.Printf("[%s] %s", tag, msg)
		return
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	l.logger.Printf("[%s] %s %s", tag, msg, strings.Join(parts, " "))
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func String(key, val string) Field   { return Field{Key: key, Value: val} }
func Int(key string, val int) Field  { return Field{Key: key, Value: val} }
func Uint8(key string, val uint8) Field { return Field{Key: key, Value: val} }
func Uint32(key string, val uint32) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "nil"}
	}
	return Field{Key: "error", Value: err.Error()}
}
