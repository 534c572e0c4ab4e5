package cache

import (
	"encoding/json"
	"fmt"

	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 📦 缓存条目
// =============================================================================

// Entry 持久化缓存条目
// Response 为序列化的题目数组；Timestamp 为毫秒级 epoch。
// 条目只经 TTL 过期，不做显式删除。
type Entry struct {
	Response  string         `json:"response"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// SemanticEntry 语义缓存条目，在 Entry 基础上附带查询嵌入向量
type SemanticEntry struct {
	Entry
	Embedding []float64 `json:"embedding"`
}

// Questions 解析条目负载为题目列表。
// 兼容单对象负载；解析失败返回错误，由调用方降级为未命中。
func (e *Entry) Questions() ([]types.CachedQuestion, error) {
	if e == nil || e.Response == "" {
		return nil, fmt.Errorf("empty cache entry payload")
	}

	var questions []types.CachedQuestion
	if err := json.Unmarshal([]byte(e.Response), &questions); err == nil {
		return questions, nil
	}

	var single types.CachedQuestion
	if err := json.Unmarshal([]byte(e.Response), &single); err != nil {
		return nil, fmt.Errorf("malformed cache entry payload: %w", err)
	}
	return []types.CachedQuestion{single}, nil
}

// metaString 读取 metadata 中的字符串字段，缺失时返回空串
func (e *Entry) metaString(key string) string {
	if e == nil || e.Metadata == nil {
		return ""
	}
	if v, ok := e.Metadata[key].(string); ok {
		return v
	}
	return ""
}
