package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alicebob/miniredis/v2"
)

// =============================================================================
// 🧪 SemanticCache 测试
// =============================================================================

func newSemanticCache(t *testing.T, embedder *stubEmbedder) (*miniredis.Miniredis, *SemanticCache) {
	t.Helper()

	mr, manager := newTestStore(t)
	c := NewSemanticCache(manager, embedder, SemanticConfig{
		Threshold: 0.75,
		TTL:       time.Hour,
	}, nil, zap.NewNop())

	return mr, c
}

func TestSemanticCache_SetAndGet(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"stored query": unitVec(0.9),
			"lookup query": {1, 0},
		},
	}
	_, c := newSemanticCache(t, embedder)
	ctx := context.Background()

	payload := questionsPayload(t, "graphs", 1)
	require.NoError(t, c.Set(ctx, "stored query", payload, "maths",
		map[string]any{"topic": "graphs"}))

	res, err := c.Get(ctx, "lookup query", "maths")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 0.9, res.Score, 1e-9)
	assert.Equal(t, payload, res.Entry.Response)
	assert.Equal(t, "graphs", res.Entry.metaString("topic"))
}

func TestSemanticCache_BelowThreshold(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"stored query": unitVec(0.5),
			"lookup query": {1, 0},
		},
	}
	_, c := newSemanticCache(t, embedder)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stored query", questionsPayload(t, "g", 1), "maths", nil))

	res, err := c.Get(ctx, "lookup query", "maths")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSemanticCache_BestOfMany(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"weak":   unitVec(0.80),
			"strong": unitVec(0.95),
			"lookup": {1, 0},
		},
	}
	_, c := newSemanticCache(t, embedder)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "weak", questionsPayload(t, "weak", 1), "maths", nil))
	require.NoError(t, c.Set(ctx, "strong", questionsPayload(t, "strong", 1), "maths", nil))

	res, err := c.Get(ctx, "lookup", "maths")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 0.95, res.Score, 1e-9)
	assert.Equal(t, queryHash("strong"), res.Field)
}

func TestSemanticCache_TieKeepsEarliest(t *testing.T) {
	// 两个条目与查询向量的相似度完全相同
	same := unitVec(0.9)
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"entry one": same,
			"entry two": same,
			"lookup":    {1, 0},
		},
	}
	_, c := newSemanticCache(t, embedder)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "entry one", questionsPayload(t, "one", 1), "maths", nil))
	require.NoError(t, c.Set(ctx, "entry two", questionsPayload(t, "two", 1), "maths", nil))

	res, err := c.Get(ctx, "lookup", "maths")
	require.NoError(t, err)
	require.NotNil(t, res)

	// 并列分数保留扫描序（字段名排序）中先见的条目
	h1, h2 := queryHash("entry one"), queryHash("entry two")
	want := h1
	if h2 < h1 {
		want = h2
	}
	assert.Equal(t, want, res.Field)
}

func TestSemanticCache_MalformedFieldSkipped(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"good":   unitVec(0.9),
			"lookup": {1, 0},
		},
	}

	mr, c := newSemanticCache(t, embedder)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "good", questionsPayload(t, "good", 1), "maths", nil))
	mr.HSet(semanticKey("maths"), "broken-field", "{not json")

	res, err := c.Get(ctx, "lookup", "maths")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, queryHash("good"), res.Field)
}

func TestSemanticCache_DimensionMismatch(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"stored": {1, 0, 0},
			"lookup": {1, 0},
		},
	}
	_, c := newSemanticCache(t, embedder)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stored", questionsPayload(t, "s", 1), "maths", nil))

	// 维度不一致 → 相似度 0 → 不命中
	res, err := c.Get(ctx, "lookup", "maths")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSemanticCache_EmbedderFailure(t *testing.T) {
	embedder := &stubEmbedder{dims: 2, err: errors.New("embedder down")}
	_, c := newSemanticCache(t, embedder)

	_, err := c.Get(context.Background(), "lookup", "maths")
	assert.Error(t, err)

	err = c.Set(context.Background(), "q", "[]", "maths", nil)
	assert.Error(t, err)
}

func TestSemanticCache_EmptyBucket(t *testing.T) {
	embedder := &stubEmbedder{dims: 2, fallback: []float64{1, 0}}
	_, c := newSemanticCache(t, embedder)

	res, err := c.Get(context.Background(), "lookup", "nowhere")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{3, 4}, []float64{3, 4}), 1e-12)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-12)

	// 维度不一致与零向量
	assert.Zero(t, cosineSimilarity([]float64{1}, []float64{1, 0}))
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Zero(t, cosineSimilarity(nil, nil))
}
