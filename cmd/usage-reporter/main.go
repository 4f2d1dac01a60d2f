package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/delivery"
	"github.com/xigua-wiki/usage-reporter/internal/handler"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/openai"
	"github.com/xigua-wiki/usage-reporter/internal/scheduler"
	"github.com/xigua-wiki/usage-reporter/internal/server"
	"github.com/xigua-wiki/usage-reporter/internal/service"
	"github.com/xigua-wiki/usage-reporter/internal/snapshot"
	"github.com/xigua-wiki/usage-reporter/internal/upstream"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（留空仅用环境变量）")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Options{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		FilePath: cfg.Log.FilePath,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fetcher := upstream.NewClient(cfg.Upstream)
	snap := snapshot.NewStore(cfg.Snapshot.Path)

	var gen service.TextGenerator
	if cfg.LLM.BaseURL != "" && cfg.LLM.APIKey != "" {
		gen = openai.NewClient(cfg.LLM)
	}

	svc := service.NewReportService(fetcher, snap, gen, cfg)

	var pusher scheduler.Pusher
	if cfg.Schedule.PushURL != "" {
		pusher = delivery.NewWebhookPusher(cfg.Schedule.PushURL, cfg.Upstream.Timeout, logger.L())
	}
	sched, err := scheduler.New(svc, pusher, cfg.Schedule)
	if err != nil {
		logger.L().Fatal("init scheduler", zap.Error(err))
	}
	sched.Start()

	srv := server.New(cfg.Server, handler.NewReportHandler(svc))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.L().Fatal("http server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.L().Info("shutting down", zap.String("signal", sig.String()))
	}

	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Warn("http shutdown", zap.Error(err))
	}
	logger.L().Info("bye")
}
