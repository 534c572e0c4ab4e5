package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/eduflow/cache"
	"github.com/BaSui01/eduflow/quota"
	"github.com/BaSui01/eduflow/topic"
	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🚀 出题流水线
// =============================================================================

// Generator 题目生成器接口，由上游 LLM 服务实现
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) ([]types.CachedQuestion, error)
}

// GenerationRequest 单主题的生成请求
type GenerationRequest struct {
	Subject    string
	Topic      string
	Count      int
	Difficulty string
	ExamTags   []string
}

// Request 一次端到端出题请求
type Request struct {
	// 请求 ID，为空时自动生成
	RequestID string

	Subject    string
	ExamTags   []string
	Difficulty string

	// 总题数；大于 0 时触发配额校验与再分配
	TotalQuestions int

	Topics []*types.TopicRequest
}

// TopicQuestions 单主题的最终题目集
type TopicQuestions struct {
	Topic     string
	Requested int
	FromCache int
	Generated int
	Questions []types.CachedQuestion
}

// Response 流水线输出
type Response struct {
	RequestID string
	Subject   string
	Topics    []TopicQuestions

	CachedTotal    int
	GeneratedTotal int
}

// Config 流水线配置
type Config struct {
	// 是否将最终题目集回写缓存
	WriteBack bool `yaml:"write_back" json:"write_back"`

	// 生成器最大并发主题数，0 表示不限制
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
}

// DefaultConfig 返回默认流水线配置
func DefaultConfig() Config {
	return Config{
		WriteBack:      true,
		MaxConcurrency: 4,
	}
}

// Pipeline 出题流水线编排器
type Pipeline struct {
	validator *quota.Validator
	stage     *cache.Stage
	generator Generator
	direct    *cache.DirectCache
	semantic  *cache.SemanticCache
	cfg       Config
	logger    *zap.Logger
}

// New 创建流水线；direct/semantic 仅用于回写，WriteBack 关闭时可为 nil
func New(validator *quota.Validator, stage *cache.Stage, generator Generator,
	direct *cache.DirectCache, semantic *cache.SemanticCache, cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		validator: validator,
		stage:     stage,
		generator: generator,
		direct:    direct,
		semantic:  semantic,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "pipeline")),
	}
}

// Run 执行一次出题请求：配额校验 → 缓存阶段 → 残量生成 → 回写
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if req.TotalQuestions > 0 {
		result := p.validator.Validate(req.Topics, req.TotalQuestions)
		if !result.IsValid {
			return nil, fmt.Errorf("quota validation failed: %s (minimum %d questions required)",
				result.Reason, result.MinCountRequired)
		}
	}

	_, err := p.stage.Process(ctx, cache.Request{
		RequestID: req.RequestID,
		Subject:   req.Subject,
		ExamTags:  req.ExamTags,
		Topics:    req.Topics,
	})
	if err != nil {
		return nil, fmt.Errorf("cache stage: %w", err)
	}

	topics := make([]TopicQuestions, len(req.Topics))

	// 残量生成按主题并发，生成器错误中断全部
	g, gctx := errgroup.WithContext(ctx)
	if p.cfg.MaxConcurrency > 0 {
		g.SetLimit(p.cfg.MaxConcurrency)
	}
	for i, t := range req.Topics {
		g.Go(func() error {
			final, err := p.fillTopic(gctx, req, t)
			if err != nil {
				return err
			}
			topics[i] = final
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &Response{
		RequestID: req.RequestID,
		Subject:   req.Subject,
		Topics:    topics,
	}
	for _, t := range topics {
		resp.CachedTotal += t.FromCache
		resp.GeneratedTotal += t.Generated
	}

	if p.cfg.WriteBack {
		p.writeBack(ctx, req, resp)
	}

	p.logger.Info("pipeline completed",
		zap.String("request_id", req.RequestID),
		zap.String("subject", req.Subject),
		zap.Int("cached_total", resp.CachedTotal),
		zap.Int("generated_total", resp.GeneratedTotal),
	)

	return resp, nil
}

// fillTopic 复用缓存命中并生成剩余题目
func (p *Pipeline) fillTopic(ctx context.Context, req Request, t *types.TopicRequest) (TopicQuestions, error) {
	final := TopicQuestions{
		Topic:     t.TopicName,
		Requested: t.OriginalRequested,
		FromCache: len(t.Cached),
		Questions: append([]types.CachedQuestion(nil), t.Cached...),
	}

	if t.NoOfQuestions <= 0 {
		return final, nil
	}

	generated, err := p.generator.Generate(ctx, GenerationRequest{
		Subject:    req.Subject,
		Topic:      t.TopicName,
		Count:      t.NoOfQuestions,
		Difficulty: req.Difficulty,
		ExamTags:   req.ExamTags,
	})
	if err != nil {
		return TopicQuestions{}, fmt.Errorf("generate questions for %q: %w", t.TopicName, err)
	}

	for i := range generated {
		if generated[i].QuestionID == "" {
			generated[i].QuestionID = uuid.NewString()
		}
		if generated[i].Topic == "" {
			generated[i].Topic = t.TopicName
		}
		if generated[i].Subject == "" {
			generated[i].Subject = req.Subject
		}
	}

	final.Generated = len(generated)
	final.Questions = append(final.Questions, generated...)
	return final, nil
}

// writeBack 将最终题目集回写精确缓存、主题集索引与语义缓存。
// 回写失败只记日志。
func (p *Pipeline) writeBack(ctx context.Context, req Request, resp *Response) {
	for _, t := range resp.Topics {
		if len(t.Questions) == 0 {
			continue
		}

		payload, err := json.Marshal(t.Questions)
		if err != nil {
			p.logger.Warn("write-back payload marshal failed",
				zap.String("topic", t.Topic), zap.Error(err))
			continue
		}

		norm := topic.Normalize(t.Topic)
		meta := map[string]any{
			"topic":   norm.Stripped,
			"subject": req.Subject,
		}

		if p.direct != nil {
			fp := cache.Fingerprint(t.Topic, req.Subject, req.ExamTags)
			if err := p.direct.Set(ctx, fp, string(payload), req.Subject, meta); err != nil {
				p.logger.Warn("fingerprint write-back dropped",
					zap.String("topic", t.Topic), zap.Error(err))
			}
			if err := p.direct.SetTopicSet(ctx, req.Subject, norm.Stripped, string(payload), meta); err != nil {
				p.logger.Warn("topic set write-back dropped",
					zap.String("topic", t.Topic), zap.Error(err))
			}
		}

		if p.semantic != nil {
			if err := p.semantic.Set(ctx, norm.Stripped, string(payload), req.Subject, meta); err != nil {
				p.logger.Warn("semantic write-back dropped",
					zap.String("topic", t.Topic), zap.Error(err))
			}
		}
	}
}
