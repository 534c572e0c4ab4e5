package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/cache"
	"github.com/BaSui01/eduflow/internal/store"
	"github.com/BaSui01/eduflow/quota"
	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🧪 流水线测试
// =============================================================================

// stubEmbedder 返回固定向量的嵌入桩
type stubEmbedder struct{}

func (stubEmbedder) Name() string    { return "stub-embedding" }
func (stubEmbedder) Dimensions() int { return 2 }

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

// fakeGenerator 记录调用并返回指定数量的题目
type fakeGenerator struct {
	mu    sync.Mutex
	calls []GenerationRequest
	seq   int
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, req GenerationRequest) ([]types.CachedQuestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, req)

	questions := make([]types.CachedQuestion, req.Count)
	for i := range questions {
		g.seq++
		questions[i] = types.CachedQuestion{
			Question:   fmt.Sprintf("generated question %d on %s", g.seq, req.Topic),
			Options:    []string{"a", "b", "c", "d"},
			Difficulty: req.Difficulty,
		}
	}
	return questions, nil
}

func (g *fakeGenerator) callFor(topic string) (GenerationRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, call := range g.calls {
		if call.Topic == topic {
			return call, true
		}
	}
	return GenerationRequest{}, false
}

type pipelineEnv struct {
	gen      *fakeGenerator
	direct   *cache.DirectCache
	pipeline *Pipeline
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	manager := newTestStore(t)

	logger := zap.NewNop()
	direct := cache.NewDirectCache(manager, time.Hour, logger)
	semantic := cache.NewSemanticCache(manager, stubEmbedder{}, cache.SemanticConfig{
		Threshold: 0.75,
		TTL:       time.Hour,
	}, nil, logger)

	stage := cache.NewStage(direct, semantic, cache.DefaultStageConfig(), nil, nil, logger)
	validator := quota.NewValidator(quota.StrategyRoundRobin, logger)

	gen := &fakeGenerator{}
	p := New(validator, stage, gen, direct, semantic, DefaultConfig(), logger)

	return &pipelineEnv{gen: gen, direct: direct, pipeline: p}
}

// newTestStore 启动 miniredis 并创建存储管理器
func newTestStore(t *testing.T) *store.Manager {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	manager, err := store.NewManager(store.Config{
		Addr:       mr.Addr(),
		DefaultTTL: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		manager.Close()
		mr.Close()
	})
	return manager
}

func topicReq(name string, n int) *types.TopicRequest {
	return &types.TopicRequest{TopicName: name, NoOfQuestions: n}
}

func TestPipeline_QuotaInvalid(t *testing.T) {
	env := newPipelineEnv(t)

	_, err := env.pipeline.Run(context.Background(), Request{
		Subject:        "maths",
		TotalQuestions: 1,
		Topics: []*types.TopicRequest{
			topicReq("a", 1), topicReq("b", 1), topicReq("c", 1),
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum 3 questions required")
	assert.Empty(t, env.gen.calls)
}

func TestPipeline_QuotaRedistribution(t *testing.T) {
	env := newPipelineEnv(t)

	resp, err := env.pipeline.Run(context.Background(), Request{
		Subject:        "maths",
		TotalQuestions: 8,
		Topics: []*types.TopicRequest{
			topicReq("Algebra", 3),
			topicReq("Geometry", 3),
		},
	})
	require.NoError(t, err)

	// 轮询补足到 4/4，空缓存时全部交给生成器
	for _, name := range []string{"Algebra", "Geometry"} {
		call, ok := env.gen.callFor(name)
		require.True(t, ok, "no generator call for %s", name)
		assert.Equal(t, 4, call.Count)
	}
	assert.Equal(t, 8, resp.GeneratedTotal)
	assert.Equal(t, 0, resp.CachedTotal)
}

func TestPipeline_EmptyCacheGeneratesAll(t *testing.T) {
	env := newPipelineEnv(t)

	resp, err := env.pipeline.Run(context.Background(), Request{
		Subject: "maths",
		Topics:  []*types.TopicRequest{topicReq("Recursion", 10)},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.CachedTotal)
	assert.Equal(t, 10, resp.GeneratedTotal)
	require.Len(t, resp.Topics, 1)
	require.Len(t, resp.Topics[0].Questions, 10)

	// 生成题目被铸上唯一 ID
	seen := map[string]bool{}
	for _, q := range resp.Topics[0].Questions {
		require.NotEmpty(t, q.QuestionID)
		assert.False(t, seen[q.QuestionID])
		seen[q.QuestionID] = true
		assert.Equal(t, "Recursion", q.Topic)
		assert.Equal(t, "maths", q.Subject)
	}
}

func TestPipeline_CacheHitReducesGeneration(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	questions := make([]types.CachedQuestion, 4)
	for i := range questions {
		questions[i] = types.CachedQuestion{
			QuestionID: fmt.Sprintf("cached-%d", i),
			Question:   fmt.Sprintf("cached question %d", i),
		}
	}
	payload, err := json.Marshal(questions)
	require.NoError(t, err)
	fp := cache.Fingerprint("Recursion", "maths", nil)
	require.NoError(t, env.direct.Set(ctx, fp, string(payload), "maths", nil))

	resp, err := env.pipeline.Run(ctx, Request{
		Subject: "maths",
		Topics:  []*types.TopicRequest{topicReq("Recursion", 10)},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.CachedTotal)
	assert.Equal(t, 6, resp.GeneratedTotal)
	require.Len(t, resp.Topics[0].Questions, 10)

	call, ok := env.gen.callFor("Recursion")
	require.True(t, ok)
	assert.Equal(t, 6, call.Count)
}

func TestPipeline_WriteBackEnablesFutureHits(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	// 第一次请求：空缓存，全部生成并回写
	resp1, err := env.pipeline.Run(ctx, Request{
		Subject: "maths",
		Topics:  []*types.TopicRequest{topicReq("Recursion", 10)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp1.CachedTotal)

	// 第二次同样的请求：指纹命中，缓存满足配额上限
	resp2, err := env.pipeline.Run(ctx, Request{
		Subject: "maths",
		Topics:  []*types.TopicRequest{topicReq("Recursion", 10)},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp2.CachedTotal)
	assert.Equal(t, 6, resp2.GeneratedTotal)
}

func TestPipeline_GeneratorError(t *testing.T) {
	env := newPipelineEnv(t)
	env.gen.err = errors.New("llm unavailable")

	_, err := env.pipeline.Run(context.Background(), Request{
		Subject: "maths",
		Topics:  []*types.TopicRequest{topicReq("Recursion", 10)},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm unavailable")
}

func TestPipeline_RequestIDAssigned(t *testing.T) {
	env := newPipelineEnv(t)

	resp, err := env.pipeline.Run(context.Background(), Request{
		Subject: "maths",
		Topics:  []*types.TopicRequest{topicReq("Recursion", 5)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
}
