package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bitable-press/internal/press/feishu"
)

type countingWarmer struct {
	calls atomic.Int32
	err   error
}

func (w *countingWarmer) WarmToken(context.Context) (time.Time, error) {
	w.calls.Add(1)
	if w.err != nil {
		return time.Time{}, w.err
	}
	return time.Now().Add(time.Hour), nil
}

func TestWorker_runOnce(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		level   zapcore.Level
		message string
	}{
		{"success", nil, zapcore.DebugLevel, "Token warm"},
		{"configuration missing", feishu.NewConfigurationError([]string{"appId"}), zapcore.WarnLevel, "Token warm skipped, credentials not configured"},
		{"failure is not retried", errors.New("network down"), zapcore.ErrorLevel, "Token warm failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			warmer := &countingWarmer{err: tt.err}
			w := &Worker{Log: zap.New(core), Warmer: warmer}

			w.runOnce(context.Background())

			assert.Equal(t, int32(1), warmer.calls.Load())
			entries := logs.FilterMessage(tt.message).All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.level, entries[0].Level)
			}
		})
	}
}

func TestWorker_Run(t *testing.T) {
	t.Run("disabled interval returns immediately", func(t *testing.T) {
		warmer := &countingWarmer{}
		w := &Worker{Log: zap.NewNop(), Warmer: warmer}

		w.Run(context.Background())

		assert.Equal(t, int32(0), warmer.calls.Load())
	})

	t.Run("ticks until cancelled", func(t *testing.T) {
		warmer := &countingWarmer{}
		w := &Worker{Log: zap.NewNop(), Warmer: warmer, Interval: 10 * time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		assert.Eventually(t, func() bool { return warmer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not stop after cancel")
		}
	})
}
