// Package logger provides structured logging for the game server.
// Every economy mutation should be traceable through this.
package logger

import (
	"io"
	"log"
	"os"
)

// Logger provides leveled logging with an audit channel.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance.
func NewLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[LUNA-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, "[LUNA-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "[LUNA-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// NewDiscardLogger creates a logger that drops everything. Offline
// tools use it to keep their own output readable.
func NewDiscardLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(io.Discard, "", 0),
		warnLogger:  log.New(io.Discard, "", 0),
		errorLogger: log.New(io.Discard, "", 0),
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Event logs an economy event in a grep-friendly audit format.
func (l *Logger) Event(eventType string, playerID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Player:%s | %s", eventType, playerID, details)
}
