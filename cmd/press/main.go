package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bitable-press/internal/middleware/logger"
	"bitable-press/internal/press/api"
	"bitable-press/internal/press/feishu"
	"bitable-press/internal/press/helper"
	"bitable-press/internal/press/processor"
	"bitable-press/internal/press/scheduler"
	"bitable-press/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/press.yaml", "path to YAML config")
	flag.Parse()

	// .env 不存在不算错误
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting bitable press...", zap.String("store", cfg.Store.Kind))

	// 1) 站点配置存储
	var store helper.ConfigStore
	switch cfg.Store.Kind {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		stores, err := helper.ConnectMongo(connectCtx,
			cfg.Mongo.Host,
			cfg.Mongo.DBName,
			cfg.Mongo.Username,
			cfg.Mongo.Password,
			cfg.Mongo.AuthSource,
		)
		cancel()
		if err != nil {
			log.Fatal("Failed to connect mongo", zap.Error(err))
		}
		defer func() {
			if err := stores.Close(context.Background()); err != nil {
				log.Warn("Failed to disconnect mongo", zap.Error(err))
			}
		}()
		store = helper.NewMongoStore(stores)
	default:
		store = helper.NewFileStore(cfg.Store.FilePath)
	}

	// 2) 飞书客户端，token 管理器进程内共享
	httpClient := &http.Client{Timeout: cfg.Feishu.HTTPTimeout}
	tokens := feishu.NewTokenManager(log.Named("token"), httpClient, cfg.Feishu.BaseURL)
	client := feishu.NewClient(log.Named("feishu"), httpClient, cfg.Feishu.BaseURL)
	proc := processor.NewProcessor(log.Named("processor"), helper.NewCredentialResolver(log, store), tokens, client)

	// 3) token 预热（可选）
	worker := &scheduler.Worker{
		Log:      log.Named("scheduler"),
		Warmer:   proc,
		Interval: cfg.Scheduler.WarmInterval,
	}
	go worker.Run(ctx)

	// 4) 起 HTTP API
	srv := &api.Server{
		Log:           log.Named("api"),
		Posts:         proc,
		Store:         store,
		AdminPassword: cfg.Server.AdminPassword,
	}
	r := srv.Router()
	_ = r.SetTrustedProxies(nil)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Bitable press is running", zap.String("address", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
