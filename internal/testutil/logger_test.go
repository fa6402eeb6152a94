package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingLogger(t *testing.T) {
	logger, rec := NewRecordingLogger(t)

	logger.Info("dataset loaded", "dataset", "visits", "rows", 5)
	logger.With("tier", "output").Warn("values could not be coerced", "count", 2)
	logger.Debug("ignored by Messages(Info)")

	assert.Equal(t, []string{"dataset loaded"}, rec.Messages(slog.LevelInfo))
	assert.Equal(t, []string{"values could not be coerced"}, rec.Messages(slog.LevelWarn))
	assert.Empty(t, rec.Messages(slog.LevelError))

	rows, ok := rec.Attr("dataset loaded", "rows")
	require.True(t, ok)
	assert.Equal(t, int64(5), rows.Int64())

	_, ok = rec.Attr("dataset loaded", "missing")
	assert.False(t, ok)
}

func TestRecordingLogger_Concurrent(t *testing.T) {
	logger, rec := NewRecordingLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("check finished", "worker", i)
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Messages(slog.LevelInfo), 8)
}
