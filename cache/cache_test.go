package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/internal/store"
	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🧪 测试基础设施
// =============================================================================

// stubEmbedder 按文本映射返回固定向量的嵌入桩
type stubEmbedder struct {
	dims     int
	vectors  map[string][]float64
	fallback []float64
	err      error
}

func (s *stubEmbedder) Name() string    { return "stub-embedding" }
func (s *stubEmbedder) Dimensions() int { return s.dims }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = s.fallback
		}
	}
	return out, nil
}

// unitVec 构造与 [1,0] 余弦相似度恰为 sim 的单位向量
func unitVec(sim float64) []float64 {
	return []float64{sim, math.Sqrt(1 - sim*sim)}
}

// captureSink 收集审计记录
type captureSink struct {
	records []Record
}

func (s *captureSink) Write(_ context.Context, record Record) error {
	s.records = append(s.records, record)
	return nil
}

// newTestStore 启动 miniredis 并创建存储管理器
func newTestStore(t *testing.T) (*miniredis.Miniredis, *store.Manager) {
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

	return mr, manager
}

// questionsPayload 生成 n 道题的序列化负载
func questionsPayload(t *testing.T, prefix string, n int) string {
	t.Helper()

	questions := make([]types.CachedQuestion, n)
	for i := range questions {
		questions[i] = types.CachedQuestion{
			QuestionID:    fmt.Sprintf("%s-%d", prefix, i),
			Question:      fmt.Sprintf("question %s-%d", prefix, i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "a",
			Difficulty:    "medium",
			Topic:         prefix,
		}
	}

	data, err := json.Marshal(questions)
	require.NoError(t, err)
	return string(data)
}

// topicReq 构造主题请求
func topicReq(name string, n int) *types.TopicRequest {
	return &types.TopicRequest{TopicName: name, NoOfQuestions: n}
}
