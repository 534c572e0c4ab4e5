package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/embedding"
	"github.com/BaSui01/eduflow/internal/metrics"
	"github.com/BaSui01/eduflow/internal/store"
)

// =============================================================================
// 🧠 语义缓存
// =============================================================================

// SemanticCache 基于嵌入余弦相似度的缓存
// 存储模型：每学科一个哈希表（semantic:{subject}），字段为规范化
// 查询的哈希，值为带嵌入的序列化条目。查找对全表做线性扫描——
// 目标条目量为每学科数百条，索引是显式非目标。
type SemanticCache struct {
	store    *store.Manager
	embedder embedding.Provider
	cfg      SemanticConfig
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Result 语义查找结果
type Result struct {
	Entry SemanticEntry
	Score float64
	Field string
}

// NewSemanticCache 创建语义缓存；collector 可为 nil
func NewSemanticCache(s *store.Manager, embedder embedding.Provider, cfg SemanticConfig, collector *metrics.Collector, logger *zap.Logger) *SemanticCache {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultSemanticConfig().Threshold
	}
	return &SemanticCache{
		store:    s,
		embedder: embedder,
		cfg:      cfg,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "semantic_cache")),
	}
}

// Get 查找与 query 最相似且分数不低于基线阈值的单个条目。
// 查询嵌入只计算一次；并列分数保留先见条目（严格大于才替换）。
// 未命中返回 (nil, nil)；嵌入或存储错误返回给调用方并降级为未命中。
func (c *SemanticCache) Get(ctx context.Context, query, subject string) (*Result, error) {
	vecs, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		c.logger.Warn("query embedding failed, semantic lookup degraded to miss",
			zap.String("subject", subject), zap.Error(err))
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}
	queryVec := vecs[0]

	fields, err := c.store.HGetAll(ctx, semanticKey(subject))
	if err != nil {
		c.logger.Warn("semantic bucket scan degraded to miss",
			zap.String("subject", subject), zap.Error(err))
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ObserveSemanticScan(len(fields))
	}

	// 按字段名排序扫描，保证并列分数时"先见保留"可重现
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	var best *Result
	for _, field := range names {
		raw := fields[field]
		var entry SemanticEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			c.logger.Warn("malformed semantic entry skipped",
				zap.String("subject", subject), zap.String("field", field), zap.Error(err))
			continue
		}

		score := cosineSimilarity(queryVec, entry.Embedding)
		if score < c.cfg.Threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Result{Entry: entry, Score: score, Field: field}
		}
	}

	return best, nil
}

// Set 写入/覆盖查询对应的语义条目并刷新整桶 TTL，
// 写入与续期在单个原子操作中完成。
func (c *SemanticCache) Set(ctx context.Context, query, response, subject string, metadata map[string]any) error {
	vecs, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		c.logger.Warn("embedding failed, semantic cache write dropped",
			zap.String("subject", subject), zap.Error(err))
		return err
	}
	if len(vecs) == 0 {
		return fmt.Errorf("embedder returned no vector")
	}

	entry := SemanticEntry{
		Entry: Entry{
			Response:  response,
			Metadata:  metadata,
			Timestamp: time.Now().UnixMilli(),
		},
		Embedding: vecs[0],
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal semantic entry: %w", err)
	}

	if err := c.store.HSetWithTTL(ctx, semanticKey(subject), queryHash(query), string(data), c.cfg.TTL); err != nil {
		c.logger.Warn("semantic cache write dropped",
			zap.String("subject", subject), zap.Error(err))
		return err
	}

	return nil
}

// cosineSimilarity 计算余弦相似度 dot(a,b)/(|a||b|)；维度不一致时为 0
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
