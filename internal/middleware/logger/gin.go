package logger

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 探活和指标抓取不记访问日志
var skipPaths = []string{"/healthz", "/metrics"}

// GinZap 每个请求一行访问日志，时间统一用 UTC
func GinZap(log *zap.Logger) gin.HandlerFunc {
	return ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  skipPaths,
	})
}

// GinRecovery panic 时记录堆栈并返回 500
func GinRecovery(log *zap.Logger) gin.HandlerFunc {
	return ginzap.RecoveryWithZap(log, true)
}
