// =============================================================================
// 📦 EduFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/eduflow/cache"
	"github.com/BaSui01/eduflow/internal/store"
	"github.com/BaSui01/eduflow/pipeline"
	"github.com/BaSui01/eduflow/quota"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 EduFlow 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Redis 缓存存储配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Cache 缓存阶段配置
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Embedding 嵌入服务配置
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Pipeline 流水线配置
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// Generator 上游出题服务配置
	Generator GeneratorConfig `yaml:"generator" env:"GENERATOR"`

	// Audit 审计存储配置
	Audit AuditConfig `yaml:"audit" env:"AUDIT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// API Keys；为空时不启用认证
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 默认条目 TTL
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	// 健康检查间隔
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
}

// CacheConfig 缓存阶段配置
type CacheConfig struct {
	// 每主题可由缓存满足的配额比例（0–1）
	CacheRate float64 `yaml:"cache_rate" env:"CACHE_RATE"`
	// 是否启用精确缓存
	EnableExactCache bool `yaml:"enable_exact_cache" env:"ENABLE_EXACT_CACHE"`
	// 是否启用语义缓存
	EnableSemanticCache bool `yaml:"enable_semantic_cache" env:"ENABLE_SEMANTIC_CACHE"`
	// 是否启用会话级去重
	EnableSessionDedupe bool `yaml:"enable_session_dedupe" env:"ENABLE_SESSION_DEDUPE"`
	// 语义基线阈值（低于此分数的候选不返回）
	BaselineThreshold float64 `yaml:"baseline_threshold" env:"BASELINE_THRESHOLD"`
	// 主题相等阈值
	SemanticThreshold float64 `yaml:"semantic_threshold" env:"SEMANTIC_THRESHOLD"`
	// 别名阈值
	AliasBoostThreshold float64 `yaml:"alias_boost_threshold" env:"ALIAS_BOOST_THRESHOLD"`
	// 学科匹配阈值
	SubjectMatchThreshold float64 `yaml:"subject_match_threshold" env:"SUBJECT_MATCH_THRESHOLD"`
	// 跨学科回退阈值
	CrossSubjectThreshold float64 `yaml:"cross_subject_threshold" env:"CROSS_SUBJECT_THRESHOLD"`
	// 不足补分策略: round-robin, priority, proportional
	DistributionStrategy string `yaml:"distribution_strategy" env:"DISTRIBUTION_STRATEGY"`
	// 写入条目 TTL
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// EmbeddingConfig 嵌入服务配置
type EmbeddingConfig struct {
	// 提供商: openai, static
	Provider string `yaml:"provider" env:"PROVIDER"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（OpenAI 兼容端点）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 向量维度
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// PipelineConfig 流水线配置
type PipelineConfig struct {
	// 是否回写缓存
	WriteBack bool `yaml:"write_back" env:"WRITE_BACK"`
	// 生成器最大并发主题数
	MaxConcurrency int `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`
}

// GeneratorConfig 上游出题服务配置
type GeneratorConfig struct {
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// AuditConfig 审计存储配置
type AuditConfig struct {
	// 是否启用落盘审计
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// SQLite 文件路径
	Path string `yaml:"path" env:"PATH"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP gRPC 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "EDUFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}

	if c.Cache.CacheRate < 0 || c.Cache.CacheRate > 1 {
		errs = append(errs, "cache_rate must be between 0 and 1")
	}
	for name, v := range map[string]float64{
		"baseline_threshold":      c.Cache.BaselineThreshold,
		"semantic_threshold":      c.Cache.SemanticThreshold,
		"alias_boost_threshold":   c.Cache.AliasBoostThreshold,
		"subject_match_threshold": c.Cache.SubjectMatchThreshold,
		"cross_subject_threshold": c.Cache.CrossSubjectThreshold,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}

	switch quota.Strategy(c.Cache.DistributionStrategy) {
	case quota.StrategyRoundRobin, quota.StrategyPriority, quota.StrategyProportional:
	default:
		errs = append(errs, fmt.Sprintf("unknown distribution strategy %q", c.Cache.DistributionStrategy))
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		errs = append(errs, "audit path required when audit is enabled")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.OTLPEndpoint == "" {
			errs = append(errs, "otlp_endpoint required when telemetry is enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			errs = append(errs, "sample_rate must be between 0 and 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// =============================================================================
// 🔄 组件配置转换
// =============================================================================

// StoreConfig 转换为存储管理器配置
func (r *RedisConfig) StoreConfig() store.Config {
	return store.Config{
		Addr:                r.Addr,
		Password:            r.Password,
		DB:                  r.DB,
		PoolSize:            r.PoolSize,
		MinIdleConns:        r.MinIdleConns,
		DefaultTTL:          r.DefaultTTL,
		HealthCheckInterval: r.HealthCheckInterval,
	}
}

// StageConfig 转换为缓存阶段配置
func (c *CacheConfig) StageConfig() cache.StageConfig {
	return cache.StageConfig{
		CacheRate:             c.CacheRate,
		EnableExactCache:      c.EnableExactCache,
		EnableSemanticCache:   c.EnableSemanticCache,
		EnableSessionDedupe:   c.EnableSessionDedupe,
		SemanticThreshold:     c.SemanticThreshold,
		AliasBoostThreshold:   c.AliasBoostThreshold,
		SubjectMatchThreshold: c.SubjectMatchThreshold,
		CrossSubjectThreshold: c.CrossSubjectThreshold,
		DistributionStrategy:  quota.Strategy(c.DistributionStrategy),
		TTL:                   c.TTL,
	}
}

// SemanticConfig 转换为语义缓存配置
func (c *CacheConfig) SemanticConfig() cache.SemanticConfig {
	return cache.SemanticConfig{
		Threshold: c.BaselineThreshold,
		TTL:       c.TTL,
	}
}

// PipelineConfig 转换为流水线配置
func (p *PipelineConfig) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		WriteBack:      p.WriteBack,
		MaxConcurrency: p.MaxConcurrency,
	}
}

// GeneratorConfig 转换为生成器客户端配置
func (g *GeneratorConfig) GeneratorConfig() pipeline.HTTPGeneratorConfig {
	return pipeline.HTTPGeneratorConfig{
		BaseURL: g.BaseURL,
		APIKey:  g.APIKey,
		Timeout: g.Timeout,
	}
}
