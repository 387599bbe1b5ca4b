package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func statement() (string, int64) {
	return "SELECT * FROM kv_entries WHERE entry_key = 'admins'", 1
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		begin   time.Time
		err     error
		message string
	}{
		{"error", gormlogger.Warn, time.Now(), errors.New("disk full"), "SQL error"},
		{"slow", gormlogger.Warn, time.Now().Add(-time.Second), nil, "Slow SQL"},
		{"normal at info", gormlogger.Info, time.Now(), nil, "SQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level, 100*time.Millisecond)
			ctx := WithRequestID(context.Background(), "req-1")

			l.Trace(ctx, tt.begin, statement, tt.err)

			entries := logs.FilterMessage(tt.message).All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
				assert.Contains(t, entries[0].ContextMap()["sql"], "kv_entries")
			}
		})
	}
}

func TestGormLogger_Quiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 0)

	l.Trace(context.Background(), time.Now(), statement, gormlogger.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now().Add(-time.Hour), statement, nil)
	l.Trace(context.Background(), time.Now(), statement, nil)
	l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), statement, errors.New("x"))

	assert.Zero(t, logs.Len())
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), gormlogger.Warn, 0)
	silent := l.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Silent, silent.level)
	assert.Equal(t, gormlogger.Warn, l.level)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
