package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🌐 HTTP 生成器客户端
// =============================================================================

// HTTPGeneratorConfig 上游出题服务配置
type HTTPGeneratorConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// HTTPGenerator 通过 HTTP API 调用上游出题服务.
type HTTPGenerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPGenerator 创建上游出题服务客户端.
func NewHTTPGenerator(cfg HTTPGeneratorConfig) *HTTPGenerator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPGenerator{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type generateRequest struct {
	Subject    string   `json:"subject"`
	Topic      string   `json:"topic"`
	Count      int      `json:"count"`
	Difficulty string   `json:"difficulty,omitempty"`
	ExamTags   []string `json:"exam_tags,omitempty"`
}

type generateResponse struct {
	Questions []types.CachedQuestion `json:"questions"`
}

// Generate 请求上游服务生成指定数量的题目.
func (g *HTTPGenerator) Generate(ctx context.Context, req GenerationRequest) ([]types.CachedQuestion, error) {
	body, err := json.Marshal(generateRequest{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Count:      req.Count,
		Difficulty: req.Difficulty,
		ExamTags:   req.ExamTags,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse generate response: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("generator returned no questions")
	}

	return parsed.Questions, nil
}
