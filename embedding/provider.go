package embedding

import (
	"context"
)

// Provider 文本嵌入提供者.
// 同一部署内向量维度固定，由 Dimensions 给出。
type Provider interface {
	// Name 返回提供者名称（用于日志）
	Name() string

	// Dimensions 返回输出向量维度
	Dimensions() int

	// Embed 为每个输入文本生成一个嵌入向量，顺序与输入一致
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
