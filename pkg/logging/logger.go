// Package logging provides the levelled, categorised logger shared by the Sert
// native layer. Messages are rendered through logrus so every line carries a
// timestamp, a level and the emitting subsystem.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// LogLevel represents the severity of a log message (higher value = higher severity)
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Detailed tracing (requires enabled + category)
	LevelInfo                   // Informational messages (requires enabled + category)
	LevelDebug                  // Development debugging (requires enabled + category)
	LevelNotice                 // Notable events (always shown)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Runtime errors (always shown)
	LevelFatal                  // Start-up failures (always shown, never exits)
)

// LogCategory represents the subsystem generating the message
type LogCategory string

const (
	CatNone      LogCategory = ""          // Uncategorized
	CatApp       LogCategory = "app"       // Process lifecycle
	CatCommand   LogCategory = "command"   // Command surface
	CatPython    LogCategory = "python"    // Interpreter worker
	CatBridge    LogCategory = "bridge"    // Front-end transport
	CatMenu      LogCategory = "menu"      // Native menu dispatch
	CatDrop      LogCategory = "drop"      // Drag-and-drop routing
	CatClipboard LogCategory = "clipboard" // Clipboard backends
	CatIO        LogCategory = "io"        // File reads/writes, watcher
	CatStore     LogCategory = "store"     // Preferences database
)

// AllLogCategories returns every known category.
func AllLogCategories() []LogCategory {
	return []LogCategory{
		CatApp, CatCommand, CatPython, CatBridge, CatMenu,
		CatDrop, CatClipboard, CatIO, CatStore,
	}
}

// Logger handles logging for the native layer
type Logger struct {
	mu                sync.RWMutex
	enabled           bool
	enabledCategories map[LogCategory]bool
	backend           *logrus.Logger
}

// stderrSupportsColor checks if stderr is a terminal that supports color output
func stderrSupportsColor() bool {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return false
	}

	// Respect NO_COLOR environment variable (https://no-color.org/)
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	if os.Getenv("TERM") == "dumb" {
		return false
	}

	return true
}

// New creates a logger writing to stderr.
func New(enabled bool) *Logger {
	return NewWithWriter(enabled, os.Stderr, stderrSupportsColor())
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(enabled bool, w io.Writer, color bool) *Logger {
	backend := logrus.New()
	backend.SetOutput(w)
	backend.SetLevel(logrus.TraceLevel)
	backend.SetFormatter(&logrus.TextFormatter{
		ForceColors:      color,
		DisableColors:    !color,
		FullTimestamp:    true,
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})

	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		backend:           backend,
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return NewWithWriter(false, io.Discard, false)
}

// SetEnabled enables or disables debug logging
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

// EnableCategory enables debug logging for a specific category
func (l *Logger) EnableCategory(cat LogCategory) {
	l.mu.Lock()
	l.enabledCategories[cat] = true
	l.mu.Unlock()
}

// DisableCategory disables debug logging for a specific category
func (l *Logger) DisableCategory(cat LogCategory) {
	l.mu.Lock()
	delete(l.enabledCategories, cat)
	l.mu.Unlock()
}

// EnableAllCategories enables all categories for debug logging
func (l *Logger) EnableAllCategories() {
	l.mu.Lock()
	for _, cat := range AllLogCategories() {
		l.enabledCategories[cat] = true
	}
	l.mu.Unlock()
}

// IsCategoryEnabled checks if a category is enabled
func (l *Logger) IsCategoryEnabled(cat LogCategory) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabledCategories[cat]
}

// shouldLog determines if a message should be logged based on level and category
func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	switch level {
	case LevelFatal, LevelError, LevelWarn, LevelNotice:
		return true
	case LevelDebug, LevelInfo, LevelTrace:
		l.mu.RLock()
		defer l.mu.RUnlock()
		return l.enabled && (cat == CatNone || l.enabledCategories[cat])
	default:
		return false
	}
}

// Log is the unified logging method
func (l *Logger) Log(level LogLevel, cat LogCategory, message string, fields map[string]interface{}) {
	if l == nil || !l.shouldLog(level, cat) {
		return
	}

	entry := logrus.NewEntry(l.backend)
	if cat != CatNone {
		entry = entry.WithField("category", string(cat))
	}
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields))
	}

	switch level {
	case LevelTrace:
		entry.Trace(message)
	case LevelInfo:
		entry.Info(message)
	case LevelDebug:
		entry.Debug(message)
	case LevelNotice:
		entry.WithField("notice", true).Info(message)
	case LevelWarn:
		entry.Warn(message)
	case LevelError, LevelFatal:
		entry.Error(message)
	}
}

// Convenience methods that route through Log
// Ordered by severity: Fatal, Error, Warn, Notice, Debug, Info, Trace

// FatalCat logs a categorized fatal message. It does not exit.
func (l *Logger) FatalCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelFatal, cat, fmt.Sprintf(format, args...), nil)
}

// ErrorCat logs a categorized error message
func (l *Logger) ErrorCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelError, cat, fmt.Sprintf(format, args...), nil)
}

// WarnCat logs a categorized warning message
func (l *Logger) WarnCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelWarn, cat, fmt.Sprintf(format, args...), nil)
}

// NoticeCat logs a categorized notice message
func (l *Logger) NoticeCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelNotice, cat, fmt.Sprintf(format, args...), nil)
}

// DebugCat logs a categorized debug message
func (l *Logger) DebugCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...), nil)
}

// InfoCat logs a categorized informational message
func (l *Logger) InfoCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelInfo, cat, fmt.Sprintf(format, args...), nil)
}

// TraceCat logs a categorized trace message
func (l *Logger) TraceCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelTrace, cat, fmt.Sprintf(format, args...), nil)
}
