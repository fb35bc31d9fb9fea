package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "crm-imobiliario/internal/common/models"

	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level   zapcore.Level
	Message string
	IP      string
	UserID  string
	Caller  string
	Fields  map[string]interface{}
}

// LogSink persists one log document
type LogSink interface {
	InsertOne(ctx context.Context, document interface{}) error
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	sink    LogSink
	logChan chan LogEntry
	appId   string
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewDBLogWriter starts the background worker immediately
func NewDBLogWriter(sink LogSink, appId string, buffer int) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		logChan: make(chan LogEntry, buffer),
		appId:   appId,
		done:    make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks the caller; a full buffer drops the entry
func (w *DBLogWriter) AddLog(entry LogEntry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close stops accepting entries and waits for the worker to drain
func (w *DBLogWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.logChan)
	w.mu.Unlock()
	<-w.done
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for entry := range w.logChan {
		record := common_models.Log{
			Message:       entry.Message,
			Level:         entry.Level.String(),
			LogLevelId:    mapLevelToInt(entry.Level),
			IpAddress:     entry.IP,
			UserID:        entry.UserID,
			Caller:        entry.Caller,
			ApplicationID: w.appId,
			CreatedOnUtc:  time.Now().UTC(),
		}
		if len(entry.Fields) > 0 {
			record.Fields = entry.Fields
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Errors are ignored to keep the app running
		_ = w.sink.InsertOne(ctx, record)
		cancel()
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
