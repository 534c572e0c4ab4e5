package cache

import (
	"time"

	"github.com/BaSui01/eduflow/quota"
)

// =============================================================================
// ⚙️ 缓存阶段配置
// =============================================================================

// StageConfig 缓存阶段配置
type StageConfig struct {
	// 每主题可由缓存满足的配额比例（0–1）
	CacheRate float64 `yaml:"cache_rate" json:"cache_rate"`

	// 是否启用精确缓存（步骤 1–2）
	EnableExactCache bool `yaml:"enable_exact_cache" json:"enable_exact_cache"`

	// 是否启用语义缓存（步骤 3–4）
	EnableSemanticCache bool `yaml:"enable_semantic_cache" json:"enable_semantic_cache"`

	// 是否启用会话级去重
	EnableSessionDedupe bool `yaml:"enable_session_dedupe" json:"enable_session_dedupe"`

	// 步骤 3 规则 (a)：存储主题与剥离形相等时的相似度阈值
	SemanticThreshold float64 `yaml:"semantic_threshold" json:"semantic_threshold"`

	// 步骤 3 规则 (b)：存储主题为已知别名时的相似度阈值
	AliasBoostThreshold float64 `yaml:"alias_boost_threshold" json:"alias_boost_threshold"`

	// 步骤 3 规则 (c)：仅学科匹配时的相似度阈值
	SubjectMatchThreshold float64 `yaml:"subject_match_threshold" json:"subject_match_threshold"`

	// 步骤 4：跨学科回退的相似度阈值
	CrossSubjectThreshold float64 `yaml:"cross_subject_threshold" json:"cross_subject_threshold"`

	// 不足补分策略（交由上游配额校验使用）
	DistributionStrategy quota.Strategy `yaml:"distribution_strategy" json:"distribution_strategy"`

	// 写入条目的 TTL
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

// DefaultStageConfig 返回默认缓存阶段配置
func DefaultStageConfig() StageConfig {
	return StageConfig{
		CacheRate:             0.40,
		EnableExactCache:      true,
		EnableSemanticCache:   true,
		EnableSessionDedupe:   true,
		SemanticThreshold:     0.78,
		AliasBoostThreshold:   0.75,
		SubjectMatchThreshold: 0.82,
		CrossSubjectThreshold: 0.85,
		DistributionStrategy:  quota.StrategyRoundRobin,
		TTL:                   86400 * time.Second,
	}
}

// SemanticConfig 语义缓存配置
type SemanticConfig struct {
	// 基线相似度阈值，低于此分数的候选不返回
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// 写入条目的 TTL
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

// DefaultSemanticConfig 返回默认语义缓存配置
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		Threshold: 0.75,
		TTL:       86400 * time.Second,
	}
}
