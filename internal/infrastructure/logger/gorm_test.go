package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFunc() (string, int64) {
	return `SELECT * FROM "crm_documents" WHERE id = 'x'`, 1
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{"error", gormlogger.Error, 0, errors.New("connection reset"), "SQL error", zapcore.ErrorLevel},
		{"record not found is quiet", gormlogger.Info, 0, gorm.ErrRecordNotFound, "SQL", zapcore.DebugLevel},
		{"slow query", gormlogger.Warn, 300 * time.Millisecond, nil, "Slow SQL", zapcore.WarnLevel},
		{"normal query at info", gormlogger.Info, 0, nil, "SQL", zapcore.DebugLevel},
		{"normal query at warn", gormlogger.Warn, 0, nil, "", 0},
		{"silent", gormlogger.Silent, time.Second, errors.New("x"), "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, logs := observed()
			gl := NewGormLogger(l, tt.level, 200*time.Millisecond)

			gl.Trace(context.Background(), time.Now().Add(-tt.elapsed), sqlFunc, tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "gorm", entry.LoggerName)
			assert.Contains(t, entry.ContextMap()["sql"], "crm_documents")
		})
	}
}

func TestGormLogger_TraceCarriesRequestAndTrace(t *testing.T) {
	l, logs := observed()
	gl := NewGormLogger(l, gormlogger.Error, 0)

	ctx := WithRequestID(spanContext(t), l, "req-7")
	gl.Trace(ctx, time.Now(), sqlFunc, errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
}

func TestGormLogger_LogMode(t *testing.T) {
	l, logs := observed()
	gl := NewGormLogger(l, gormlogger.Silent, 0)

	gl.Info(context.Background(), "hidden %d", 1)
	assert.Zero(t, logs.Len())

	loud := gl.LogMode(gormlogger.Info)
	loud.Info(context.Background(), "shown %d", 1)
	loud.Warn(context.Background(), "warned")
	loud.Error(context.Background(), "failed")
	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, "shown 1", logs.All()[0].Message)

	// original is untouched
	gl.Warn(context.Background(), "still hidden")
	assert.Equal(t, 3, logs.Len())
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Warn, GormLevel("warn"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
}
