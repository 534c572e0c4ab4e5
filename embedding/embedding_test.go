package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 🧪 嵌入提供者测试
// =============================================================================

func TestStaticProvider_Deterministic(t *testing.T) {
	p := NewStaticProvider(32)
	ctx := context.Background()

	a, err := p.Embed(ctx, []string{"recursion"})
	require.NoError(t, err)
	b, err := p.Embed(ctx, []string{"recursion"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], 32)

	// 单位向量
	var norm float64
	for _, v := range a[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestStaticProvider_DistinctTexts(t *testing.T) {
	p := NewStaticProvider(32)

	vecs, err := p.Embed(context.Background(), []string{"recursion", "sorting"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestStaticProvider_InvalidDims(t *testing.T) {
	p := NewStaticProvider(-1)
	assert.Equal(t, 64, p.Dimensions())
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// 乱序返回，验证按 index 归位
		resp := openAIEmbedResponse{Model: req.Model}
		resp.Data = []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}{
			{Index: 1, Embedding: []float64{0, 1}},
			{Index: 0, Embedding: []float64{1, 0}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		Dimensions: 2,
	})

	vecs, err := p.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, vecs[0])
	assert.Equal(t, []float64{0, 1}, vecs[1])
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL})

	_, err := p.Embed(context.Background(), []string{"alpha"})
	assert.ErrorContains(t, err, "status 429")
}

func TestOpenAIProvider_EmptyInput(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{})
	vecs, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestCosineAgreement(t *testing.T) {
	// 静态向量的余弦相似度落在 [-1,1]
	p := NewStaticProvider(16)
	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	var dot, na, nb float64
	for i := range vecs[0] {
		dot += vecs[0][i] * vecs[1][i]
		na += vecs[0][i] * vecs[0][i]
		nb += vecs[1][i] * vecs[1][i]
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	assert.LessOrEqual(t, sim, 1.0+1e-9)
	assert.GreaterOrEqual(t, sim, -1.0-1e-9)
}
