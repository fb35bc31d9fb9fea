package logger

import (
	"context"
	"sync"
	"testing"

	common_models "crm-imobiliario/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	mu   sync.Mutex
	docs []common_models.Log
}

func (s *memorySink) InsertOne(ctx context.Context, document interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, document.(common_models.Log))
	return nil
}

func TestDBCoreTeesEntriesWithContextFields(t *testing.T) {
	sink := &memorySink{}
	writer := NewDBLogWriter(sink, "crm-test", 10)

	observed, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(NewDBCore(observed, writer)).With(zap.String("user_id", "u-1"))

	log.Warn("falha ao registrar interação", zap.String("ip", "10.0.0.1"), zap.String("lead_id", "l-1"))
	writer.Close()

	require.Equal(t, 1, logs.Len())
	require.Len(t, sink.docs, 1)

	doc := sink.docs[0]
	assert.Equal(t, "falha ao registrar interação", doc.Message)
	assert.Equal(t, "warn", doc.Level)
	assert.Equal(t, 30, doc.LogLevelId)
	assert.Equal(t, "10.0.0.1", doc.IpAddress)
	assert.Equal(t, "u-1", doc.UserID)
	assert.Equal(t, "crm-test", doc.ApplicationID)
}

func TestAddLogAfterCloseIsDropped(t *testing.T) {
	sink := &memorySink{}
	writer := NewDBLogWriter(sink, "crm-test", 1)
	writer.Close()

	assert.NotPanics(t, func() {
		writer.AddLog(LogEntry{Level: zapcore.InfoLevel, Message: "late"})
	})
	assert.Empty(t, sink.docs)
}

func TestMapLevelToInt(t *testing.T) {
	assert.Equal(t, 10, mapLevelToInt(zapcore.DebugLevel))
	assert.Equal(t, 40, mapLevelToInt(zapcore.ErrorLevel))
	assert.Equal(t, 20, mapLevelToInt(zapcore.DPanicLevel))
}
