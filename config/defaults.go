// =============================================================================
// 📦 EduFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Redis:     DefaultRedisConfig(),
		Cache:     DefaultCacheConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Pipeline:  DefaultPipelineConfig(),
		Generator: DefaultGeneratorConfig(),
		Audit:     DefaultAuditConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:                "localhost:6379",
		DB:                  0,
		PoolSize:            10,
		MinIdleConns:        2,
		DefaultTTL:          24 * time.Hour,
		HealthCheckInterval: 30 * time.Second,
	}
}

// DefaultCacheConfig 返回默认缓存阶段配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		CacheRate:             0.40,
		EnableExactCache:      true,
		EnableSemanticCache:   true,
		EnableSessionDedupe:   true,
		BaselineThreshold:     0.75,
		SemanticThreshold:     0.78,
		AliasBoostThreshold:   0.75,
		SubjectMatchThreshold: 0.82,
		CrossSubjectThreshold: 0.85,
		DistributionStrategy:  "round-robin",
		TTL:                   24 * time.Hour,
	}
}

// DefaultEmbeddingConfig 返回默认嵌入配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:   "openai",
		BaseURL:    "https://api.openai.com",
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		Timeout:    30 * time.Second,
	}
}

// DefaultPipelineConfig 返回默认流水线配置
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		WriteBack:      true,
		MaxConcurrency: 4,
	}
}

// DefaultGeneratorConfig 返回默认生成器配置
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		BaseURL: "http://localhost:8090",
		Timeout: 60 * time.Second,
	}
}

// DefaultAuditConfig 返回默认审计配置
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled: false,
		Path:    "eduflow_audit.db",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "eduflow",
		SampleRate:   1.0,
	}
}
