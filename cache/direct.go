package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/internal/store"
)

// =============================================================================
// 🎯 精确缓存
// =============================================================================

// DirectCache 精确匹配缓存
// 以 (学科, 规范化查询) 的稳定哈希为键做单点查找；
// 主题集索引复用同一套机制，键改为 (学科, 剥离形主题)。
type DirectCache struct {
	store  *store.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewDirectCache 创建精确缓存；ttl 为 0 时使用存储默认 TTL
func NewDirectCache(s *store.Manager, ttl time.Duration, logger *zap.Logger) *DirectCache {
	return &DirectCache{
		store:  s,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "direct_cache")),
	}
}

// Get 按查询与学科做单点查找。
// 未命中返回 (nil, nil)；存储错误与残损负载都记录日志并按未命中处理，
// 错误同时返回给调用方用于观测，绝不中断上层流程。
func (c *DirectCache) Get(ctx context.Context, query, subject string) (*Entry, error) {
	return c.getKey(ctx, directKey(query, subject))
}

// Set 写入查询对应的条目，覆盖写，不做合并
func (c *DirectCache) Set(ctx context.Context, query, response, subject string, metadata map[string]any) error {
	return c.setKey(ctx, directKey(query, subject), response, metadata)
}

// GetTopicSet 按 (学科, 剥离形主题) 查主题集索引
func (c *DirectCache) GetTopicSet(ctx context.Context, subject, strippedTopic string) (*Entry, error) {
	return c.getKey(ctx, topicSetKey(subject, strippedTopic))
}

// SetTopicSet 写入主题集索引条目
func (c *DirectCache) SetTopicSet(ctx context.Context, subject, strippedTopic, response string, metadata map[string]any) error {
	return c.setKey(ctx, topicSetKey(subject, strippedTopic), response, metadata)
}

func (c *DirectCache) getKey(ctx context.Context, key string) (*Entry, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if store.IsCacheMiss(err) {
			return nil, nil
		}
		c.logger.Warn("direct cache lookup degraded to miss",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// 残损条目按未命中处理，等 TTL 淘汰
		c.logger.Warn("malformed direct cache entry skipped",
			zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("malformed direct cache entry: %w", err)
	}

	return &entry, nil
}

func (c *DirectCache) setKey(ctx context.Context, key, response string, metadata map[string]any) error {
	entry := Entry{
		Response:  response,
		Metadata:  metadata,
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal direct cache entry: %w", err)
	}

	if err := c.store.SetWithTTL(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("direct cache write dropped", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}
