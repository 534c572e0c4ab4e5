package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// StaticProvider 确定性嵌入提供者，用于测试与本地开发.
// 同一文本总是得到同一单位向量，不同文本几乎总是得到不同向量。
// 不具备语义相似度，仅保证可重现。
type StaticProvider struct {
	dims int
}

// NewStaticProvider 创建确定性嵌入提供者；dims 不合法时取 64.
func NewStaticProvider(dims int) *StaticProvider {
	if dims <= 0 {
		dims = 64
	}
	return &StaticProvider{dims: dims}
}

func (p *StaticProvider) Name() string    { return "static-embedding" }
func (p *StaticProvider) Dimensions() int { return p.dims }

// Embed 由文本哈希派生伪随机单位向量.
func (p *StaticProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = p.vector(text)
	}
	return out, nil
}

func (p *StaticProvider) vector(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, p.dims)
	var norm float64
	for i := range vec {
		// xorshift64 序列展开为向量分量
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed)) / float64(math.MaxInt64)
		vec[i] = v
		norm += v * v
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
