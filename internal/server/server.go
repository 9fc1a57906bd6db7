package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	v3 "aerokpi/internal/api/v3"
	"aerokpi/internal/config"
	"aerokpi/internal/metrics"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	v3      *v3.Handler
	metrics *metrics.Recorder
	logger  *slog.Logger

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.New()
	}

	// 导出文件目录
	exportDir := ""
	if dataDir, err := config.EnsureDataDir(cfg); err != nil {
		logger.Warn("data dir unavailable, exports go to temp dir", "error", err)
	} else {
		exportDir = filepath.Join(dataDir, "exports")
	}

	// 创建 V3 API 处理器
	v3Handler, err := v3.NewHandler(v3.Options{
		Config:    cfg,
		Logger:    logger,
		Metrics:   recorder,
		ExportDir: exportDir,
	})
	if err != nil {
		return nil, fmt.Errorf("init api: %w", err)
	}

	router := gin.Default()
	if cfg.Data.MaxUploadMB > 0 {
		router.MaxMultipartMemory = int64(cfg.Data.MaxUploadMB) << 20
	}

	s := &Server{
		router:  router,
		v3:      v3Handler,
		metrics: recorder,
		logger:  logger,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// V3 API 路由
	api := s.router.Group("/api")
	{
		s.v3.RegisterRoutes(api)
	}

	// Prometheus
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 HTTP 处理器（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
