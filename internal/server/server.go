package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/handler"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/response"
	"github.com/xigua-wiki/usage-reporter/internal/server/middleware"
)

// Server HTTP 服务壳：路由组装 + 优雅退出。
type Server struct {
	http *http.Server
}

func New(cfg config.ServerConfig, reports *handler.ReportHandler) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	registerRoutes(engine, reports)

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func registerRoutes(engine *gin.Engine, reports *handler.ReportHandler) {
	engine.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter()
	api := engine.Group("/api/report")
	api.Use(limiter.Limit("report", 30, time.Minute))
	{
		api.GET("/overview", reports.Overview)
		api.GET("/models", reports.Models)
		api.GET("/logs", reports.Logs)
		api.GET("/anomaly", reports.Anomaly)
		api.GET("/compare", reports.Compare)
		api.GET("/quota", reports.Quota)
		api.GET("/health", reports.Health)
		// 叙述性分析要真实过一次 LLM，单独收紧
		api.POST("/narrative", limiter.Limit("narrative", 5, time.Minute), reports.Narrative)
	}
}

// Start 阻塞运行直到监听失败。正常关闭返回 nil。
func (s *Server) Start() error {
	logger.L().Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收新请求并等待在途请求完成。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
