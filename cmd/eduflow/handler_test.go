package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/cache"
	"github.com/BaSui01/eduflow/config"
	"github.com/BaSui01/eduflow/embedding"
	"github.com/BaSui01/eduflow/internal/store"
	"github.com/BaSui01/eduflow/pipeline"
	"github.com/BaSui01/eduflow/quota"
	"github.com/BaSui01/eduflow/types"
)

// echoGenerator 按请求数量返回占位题目
type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, req pipeline.GenerationRequest) ([]types.CachedQuestion, error) {
	questions := make([]types.CachedQuestion, req.Count)
	for i := range questions {
		questions[i] = types.CachedQuestion{
			Question: fmt.Sprintf("question %d on %s", i, req.Topic),
		}
	}
	return questions, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	logger := zap.NewNop()
	manager, err := store.NewManager(store.Config{
		Addr:       mr.Addr(),
		DefaultTTL: time.Hour,
	}, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		manager.Close()
		mr.Close()
	})

	cfg := config.DefaultConfig()
	s := &Server{cfg: cfg, logger: logger, store: manager}
	s.embedder = embedding.NewStaticProvider(8)
	s.auditSink = cache.NewZapSink(logger)

	direct := cache.NewDirectCache(manager, time.Hour, logger)
	semantic := cache.NewSemanticCache(manager, s.embedder, cfg.Cache.SemanticConfig(), nil, logger)
	stage := cache.NewStage(direct, semantic, cfg.Cache.StageConfig(), s.auditSink, nil, logger)
	validator := quota.NewValidator(quota.StrategyRoundRobin, logger)
	s.pipeline = pipeline.New(validator, stage, echoGenerator{}, direct, semantic,
		cfg.Pipeline.PipelineConfig(), logger)

	return s
}

func TestHandleQuestions(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"subject": "maths",
		"topics": [
			{"topic": "Recursion", "no_of_questions": 5},
			{"topic": "Sorting", "no_of_questions": 5}
		]
	}`

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/questions", strings.NewReader(body))
	s.handleQuestions(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"generated_total":10`)
	assert.Contains(t, w.Body.String(), `"cached_total":0`)
}

func TestHandleQuestions_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing subject", `{"topics":[{"topic":"a","no_of_questions":1}]}`},
		{"no topics", `{"subject":"maths","topics":[]}`},
		{"empty topic name", `{"subject":"maths","topics":[{"topic":"","no_of_questions":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/v1/questions", strings.NewReader(tt.body))
			s.handleQuestions(w, r)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleQuestions_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil)
	s.handleQuestions(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleQuestions_QuotaError(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"subject": "maths",
		"total_questions": 1,
		"topics": [
			{"topic": "a", "no_of_questions": 1},
			{"topic": "b", "no_of_questions": 1}
		]
	}`

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/questions", strings.NewReader(body))
	s.handleQuestions(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "minimum 2 questions required")
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.handleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/version", nil)
	s.handleVersion(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version"`)
}
