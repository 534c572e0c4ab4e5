package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/cache"
	"github.com/BaSui01/eduflow/config"
	"github.com/BaSui01/eduflow/embedding"
	"github.com/BaSui01/eduflow/internal/audit"
	"github.com/BaSui01/eduflow/internal/metrics"
	"github.com/BaSui01/eduflow/internal/server"
	"github.com/BaSui01/eduflow/internal/store"
	"github.com/BaSui01/eduflow/internal/telemetry"
	"github.com/BaSui01/eduflow/pipeline"
	"github.com/BaSui01/eduflow/quota"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 EduFlow 的主服务器
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 基础设施，进程生命周期内不变
	collector  *metrics.Collector
	store      *store.Manager
	embedder   embedding.Provider
	auditStore *audit.Store
	auditSink  cache.Sink
	telemetry  *telemetry.Providers

	// 热更新管理器
	reloadManager *config.ReloadManager

	// 流水线，配置热更时整体重建
	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化遥测与指标收集器
	providers, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	s.telemetry = providers
	s.collector = metrics.NewCollector("eduflow", s.logger)

	// 2. 初始化基础设施
	if err := s.initInfra(); err != nil {
		return fmt.Errorf("failed to init infrastructure: %w", err)
	}

	// 3. 组装流水线
	s.pipeline = s.buildPipeline(s.cfg)

	// 4. 初始化热更新管理器
	if err := s.initReloadManager(); err != nil {
		return fmt.Errorf("failed to init reload manager: %w", err)
	}

	// 5. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 6. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("hot_reload_enabled", s.configPath != ""),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initInfra 初始化存储、嵌入与审计
func (s *Server) initInfra() error {
	manager, err := store.NewManager(s.cfg.Redis.StoreConfig(), s.logger)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	s.store = manager

	switch s.cfg.Embedding.Provider {
	case "static":
		s.embedder = embedding.NewStaticProvider(s.cfg.Embedding.Dimensions)
	default:
		s.embedder = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			BaseURL:    s.cfg.Embedding.BaseURL,
			APIKey:     s.cfg.Embedding.APIKey,
			Model:      s.cfg.Embedding.Model,
			Dimensions: s.cfg.Embedding.Dimensions,
			Timeout:    s.cfg.Embedding.Timeout,
		})
	}
	s.logger.Info("Embedding provider initialized", zap.String("provider", s.embedder.Name()))

	if s.cfg.Audit.Enabled {
		auditStore, err := audit.Open(s.cfg.Audit.Path, s.logger)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		s.auditStore = auditStore
		s.auditSink = auditStore
	} else {
		s.auditSink = cache.NewZapSink(s.logger)
	}

	return nil
}

// buildPipeline 按配置组装缓存阶段与流水线
func (s *Server) buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	direct := cache.NewDirectCache(s.store, cfg.Cache.TTL, s.logger)
	semantic := cache.NewSemanticCache(s.store, s.embedder, cfg.Cache.SemanticConfig(), s.collector, s.logger)
	stage := cache.NewStage(direct, semantic, cfg.Cache.StageConfig(), s.auditSink, s.collector, s.logger)
	validator := quota.NewValidator(quota.Strategy(cfg.Cache.DistributionStrategy), s.logger)
	generator := pipeline.NewHTTPGenerator(cfg.Generator.GeneratorConfig())

	return pipeline.New(validator, stage, generator, direct, semantic, cfg.Pipeline.PipelineConfig(), s.logger)
}

// currentPipeline 返回当前流水线
func (s *Server) currentPipeline() *pipeline.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// initReloadManager 初始化配置热重载；未指定配置文件时跳过
func (s *Server) initReloadManager() error {
	if s.configPath == "" {
		return nil
	}

	watcher, err := config.NewFileWatcher(s.configPath, config.WithWatcherLogger(s.logger))
	if err != nil {
		return err
	}

	loader := config.NewLoader().WithConfigPath(s.configPath)
	manager, err := config.NewReloadManager(loader, watcher, s.logger)
	if err != nil {
		return err
	}
	s.reloadManager = manager

	// 缓存与流水线配置可热更；Redis、嵌入与端口变更需要重启
	manager.Subscribe(func(_, updated *config.Config) {
		s.mu.Lock()
		s.cfg = updated
		s.pipeline = s.buildPipeline(updated)
		s.mu.Unlock()
		s.logger.Info("pipeline rebuilt from reloaded config")
	})

	return manager.Start(context.Background())
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/api/v1/questions", s.handleQuestions)

	skipAuthPaths := []string{"/health", "/version"}
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager("api", handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager("metrics", mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 1. 停止热更新管理器
	if s.reloadManager != nil {
		if err := s.reloadManager.Stop(); err != nil {
			s.logger.Error("Reload manager shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 4. 刷新遥测数据
	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	// 5. 释放审计与存储连接
	if s.auditStore != nil {
		if err := s.auditStore.Close(); err != nil {
			s.logger.Error("Audit store close error", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("Store close error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
