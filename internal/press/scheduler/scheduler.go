package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bitable-press/internal/press/feishu"
)

// TokenWarmer 由 processor.Processor 实现
type TokenWarmer interface {
	WarmToken(ctx context.Context) (time.Time, error)
}

// Worker 定时预热 tenant token，首个请求就不用等鉴权。
// 每个周期只试一次，失败记日志等下个周期，不做重试。
type Worker struct {
	Log      *zap.Logger
	Warmer   TokenWarmer
	Interval time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	if w.Interval <= 0 {
		w.Log.Info("Token warmer disabled")
		return
	}

	// 立即跑一次
	w.runOnce(ctx)

	for {
		timer := time.NewTimer(w.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.Log.Info("Token warmer stopped")
			return
		case <-timer.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	expiresAt, err := w.Warmer.WarmToken(ctx)
	if err != nil {
		if feishu.IsKind(err, feishu.KindConfiguration) {
			w.Log.Warn("Token warm skipped, credentials not configured", zap.Error(err))
			return
		}
		w.Log.Error("Token warm failed", zap.Error(err))
		return
	}

	w.Log.Debug("Token warm",
		zap.Time("expiresAt", expiresAt),
		zap.Duration("remaining", time.Until(expiresAt)),
	)
}
