package cache

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/eduflow/internal/metrics"
	"github.com/BaSui01/eduflow/topic"
	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🎛️ 缓存阶段编排器
// =============================================================================

// crossSubjectBucket 跨学科回退使用的通用学科桶
const crossSubjectBucket = "general"

// Stage 缓存阶段编排器
// 每次 Process 调用即一个会话：去重集合在调用内创建、调用结束丢弃，
// 不存在进程级单例状态。
type Stage struct {
	direct   *DirectCache
	semantic *SemanticCache
	cfg      StageConfig
	audit    Sink
	metrics  *metrics.Collector
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Request 一次端到端出题请求的缓存阶段输入
type Request struct {
	RequestID string
	Subject   string
	ExamTags  []string
	Topics    []*types.TopicRequest
}

// TopicOutcome 单主题的缓存阶段结果
type TopicOutcome struct {
	Topic        *types.TopicRequest
	TargetCached int
	Accepted     int
	Misses       int
	Skipped      bool
}

// StageResult 缓存阶段聚合结果
type StageResult struct {
	Topics   []*types.TopicRequest
	Outcomes []TopicOutcome

	CachedTotal     int
	ToGenerateTotal int

	ExactHits        int
	TopicSetHits     int
	SemanticHits     int
	CrossSubjectHits int
	SkippedTopics    int
}

// NewStage 创建缓存阶段编排器；audit 为 nil 时使用 NopSink，
// collector 可为 nil。
func NewStage(direct *DirectCache, semantic *SemanticCache, cfg StageConfig, audit Sink, collector *metrics.Collector, logger *zap.Logger) *Stage {
	if audit == nil {
		audit = NopSink{}
	}
	return &Stage{
		direct:   direct,
		semantic: semantic,
		cfg:      cfg,
		audit:    audit,
		metrics:  collector,
		tracer:   otel.Tracer("github.com/BaSui01/eduflow/cache"),
		logger:   logger.With(zap.String("component", "cache_stage")),
	}
}

// Process 按主题顺序执行四步查找。
// 主题串行处理：审计顺序确定，且后续主题的去重取决于先前接受的 ID。
// 任何一步出错只降级该步为未命中，绝不中断剩余步骤或主题。
func (s *Stage) Process(ctx context.Context, req Request) (*StageResult, error) {
	ctx, span := s.tracer.Start(ctx, "cache.stage.process",
		trace.WithAttributes(
			attribute.String("subject", req.Subject),
			attribute.Int("topics", len(req.Topics)),
		))
	defer span.End()

	start := time.Now()

	// 会话级去重集合，请求开始时重置
	session := make(map[string]struct{})

	result := &StageResult{
		Topics:   req.Topics,
		Outcomes: make([]TopicOutcome, 0, len(req.Topics)),
	}

	for _, t := range req.Topics {
		outcome := s.processTopic(ctx, req, t, session, result)
		result.Outcomes = append(result.Outcomes, outcome)

		result.CachedTotal += outcome.Accepted
		result.ToGenerateTotal += t.NoOfQuestions
		if outcome.Skipped {
			result.SkippedTopics++
		}

		if s.metrics != nil {
			s.metrics.RecordTopicProcessed()
			s.metrics.RecordCacheMisses(req.Subject, outcome.Misses)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveStageDuration(req.Subject, time.Since(start))
	}

	s.logger.Info("cache stage completed",
		zap.String("request_id", req.RequestID),
		zap.String("subject", req.Subject),
		zap.Int("topics", len(req.Topics)),
		zap.Int("cached_total", result.CachedTotal),
		zap.Int("to_generate_total", result.ToGenerateTotal),
	)

	return result, nil
}

// topicState 单主题查找的可变状态
type topicState struct {
	norm       topic.Normalized
	target     int
	accepted   []types.CachedQuestion
	candidates []Candidate
	hits       map[Reason]int
}

func (st *topicState) quotaMet() bool {
	return len(st.accepted) >= st.target
}

// processTopic 按四步状态机处理单个主题
func (s *Stage) processTopic(ctx context.Context, req Request, t *types.TopicRequest, session map[string]struct{}, result *StageResult) TopicOutcome {
	ctx, span := s.tracer.Start(ctx, "cache.stage.topic",
		trace.WithAttributes(attribute.String("topic", t.TopicName)))
	defer span.End()

	requested := t.NoOfQuestions
	t.OriginalRequested = requested
	target := int(float64(requested) * s.cfg.CacheRate)

	// 步骤 0：配额为零直接短路
	if target == 0 {
		t.Cached = []types.CachedQuestion{}
		s.writeAudit(ctx, req, t, Record{TargetCached: 0, Skipped: true})
		return TopicOutcome{Topic: t, Skipped: true}
	}

	st := &topicState{
		norm:   topic.Normalize(t.TopicName),
		target: target,
		hits:   make(map[Reason]int),
	}

	// 步骤 1：指纹精确匹配
	if s.cfg.EnableExactCache {
		entry, _ := s.direct.Get(ctx, Fingerprint(t.TopicName, req.Subject, req.ExamTags), req.Subject)
		s.acceptExactEntry(entry, ReasonExactFingerprint, st, session)
	}

	// 步骤 2：主题集
	if s.cfg.EnableExactCache && !st.quotaMet() {
		entry, _ := s.direct.GetTopicSet(ctx, req.Subject, st.norm.Stripped)
		s.acceptExactEntry(entry, ReasonTopicSet, st, session)
	}

	// 步骤 3：带上下文语义匹配
	if s.cfg.EnableSemanticCache && !st.quotaMet() {
		s.semanticStep(ctx, req, st, session)
	}

	// 步骤 4：跨学科回退
	if s.cfg.EnableSemanticCache && !st.quotaMet() {
		s.crossSubjectStep(ctx, st, session)
	}

	accepted := len(st.accepted)
	misses := target - accepted
	t.Cached = st.accepted
	if t.Cached == nil {
		t.Cached = []types.CachedQuestion{}
	}
	t.NoOfQuestions = requested - accepted

	result.ExactHits += st.hits[ReasonExactFingerprint]
	result.TopicSetHits += st.hits[ReasonTopicSet]
	result.SemanticHits += st.hits[ReasonTopicMatch] + st.hits[ReasonAliasMatch] + st.hits[ReasonSubjectMatch]
	result.CrossSubjectHits += st.hits[ReasonCrossSubject]

	if s.metrics != nil {
		s.metrics.RecordCacheHit(string(ReasonExactFingerprint), st.hits[ReasonExactFingerprint])
		s.metrics.RecordCacheHit(string(ReasonTopicSet), st.hits[ReasonTopicSet])
		s.metrics.RecordCacheHit("semantic", st.hits[ReasonTopicMatch]+st.hits[ReasonAliasMatch]+st.hits[ReasonSubjectMatch])
		s.metrics.RecordCacheHit(string(ReasonCrossSubject), st.hits[ReasonCrossSubject])
	}

	s.writeAudit(ctx, req, t, Record{
		TargetCached: target,
		Accepted:     accepted,
		Misses:       misses,
		Candidates:   st.candidates,
	})

	return TopicOutcome{Topic: t, TargetCached: target, Accepted: accepted, Misses: misses}
}

// acceptExactEntry 解析精确条目并逐题尝试接受
func (s *Stage) acceptExactEntry(entry *Entry, reason Reason, st *topicState, session map[string]struct{}) {
	if entry == nil {
		return
	}

	questions, err := entry.Questions()
	if err != nil {
		st.candidates = append(st.candidates, Candidate{
			Reason: ReasonMalformedEntry,
		})
		return
	}

	for _, q := range questions {
		if st.quotaMet() {
			break
		}
		s.acceptQuestion(q, reason, types.SourceExact, 0, st, session)
	}
}

// acceptQuestion 做会话去重检查后接受单道题目
func (s *Stage) acceptQuestion(q types.CachedQuestion, reason Reason, source types.QuestionSource, score float64, st *topicState, session map[string]struct{}) {
	id := q.QuestionID
	if id == "" {
		// 无 ID 条目退化为题干哈希，保证去重仍然可用
		id = rollingHash(q.Question)
		q.QuestionID = id
	}

	cand := Candidate{
		ID:          id,
		Question:    q.Question,
		TopicNorm:   st.norm.Stripped,
		SubjectNorm: topic.NormalizeSubject(q.Subject),
	}
	if source == types.SourceSemantic {
		cand.Similarity = &score
	}

	if s.cfg.EnableSessionDedupe {
		if _, seen := session[id]; seen {
			cand.Accepted = false
			cand.Reason = ReasonSessionDedupe
			st.candidates = append(st.candidates, cand)
			return
		}
		session[id] = struct{}{}
	}

	q.CacheSource = source
	if source == types.SourceSemantic {
		q.CacheScore = score
	}

	cand.Accepted = true
	cand.Reason = reason
	st.candidates = append(st.candidates, cand)
	st.accepted = append(st.accepted, q)
	st.hits[reason]++
}

// semanticStep 步骤 3：构造 2–3 个查询变体并发查询，
// 结果按变体顺序确定性合并后执行三层接受规则。
func (s *Stage) semanticStep(ctx context.Context, req Request, st *topicState, session map[string]struct{}) {
	variants := semanticVariants(st.norm.Stripped, req.ExamTags)
	results := make([]*Result, len(variants))

	// 变体查询互相独立，可并发；合并顺序固定为先查先用
	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			res, err := s.semantic.Get(gctx, variant, req.Subject)
			if err != nil {
				// 已在语义缓存内记录日志，降级为未命中
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	subjectNorm := topic.NormalizeSubject(req.Subject)
	for _, res := range results {
		if res == nil {
			continue
		}
		if st.quotaMet() {
			break
		}
		s.evaluateSemanticCandidate(res, subjectNorm, st, session)
	}
}

// evaluateSemanticCandidate 对单个语义候选执行三层接受规则：
// (a) 主题相等 ≥ SemanticThreshold；(b) 已知别名 ≥ AliasBoostThreshold；
// (c) 学科匹配 ≥ SubjectMatchThreshold；否则按阈值不足拒绝。
func (s *Stage) evaluateSemanticCandidate(res *Result, subjectNorm string, st *topicState, session map[string]struct{}) {
	questions, err := res.Entry.Questions()
	if err != nil {
		st.candidates = append(st.candidates, Candidate{
			ID:     res.Field,
			Reason: ReasonMalformedEntry,
		})
		return
	}

	storedTopic := topic.Normalize(res.Entry.metaString("topic")).Stripped
	storedSubject := topic.NormalizeSubject(res.Entry.metaString("subject"))

	var reason Reason
	switch {
	case storedTopic == st.norm.Stripped && res.Score >= s.cfg.SemanticThreshold:
		reason = ReasonTopicMatch
	// 别名规则排除同名主题：同名候选只能走规则 (a) 的更高阈值
	case storedTopic != st.norm.Stripped && topic.IsAlias(st.norm.Stripped, storedTopic) && res.Score >= s.cfg.AliasBoostThreshold:
		reason = ReasonAliasMatch
	case storedSubject == subjectNorm && res.Score >= s.cfg.SubjectMatchThreshold:
		reason = ReasonSubjectMatch
	default:
		score := res.Score
		for _, q := range questions {
			st.candidates = append(st.candidates, Candidate{
				ID:          q.QuestionID,
				Question:    q.Question,
				TopicNorm:   storedTopic,
				SubjectNorm: storedSubject,
				Similarity:  &score,
				Accepted:    false,
				Reason:      ReasonBelowThreshold,
			})
		}
		return
	}

	for _, q := range questions {
		if st.quotaMet() {
			break
		}
		s.acceptQuestion(q, reason, types.SourceSemantic, res.Score, st, session)
	}
}

// crossSubjectStep 步骤 4：对通用学科桶做裸主题查询，
// 仅当相似度不低于 CrossSubjectThreshold 时接受。
func (s *Stage) crossSubjectStep(ctx context.Context, st *topicState, session map[string]struct{}) {
	res, err := s.semantic.Get(ctx, st.norm.Stripped, crossSubjectBucket)
	if err != nil || res == nil {
		return
	}

	questions, qErr := res.Entry.Questions()
	if qErr != nil {
		st.candidates = append(st.candidates, Candidate{
			ID:     res.Field,
			Reason: ReasonMalformedEntry,
		})
		return
	}

	if res.Score < s.cfg.CrossSubjectThreshold {
		score := res.Score
		for _, q := range questions {
			st.candidates = append(st.candidates, Candidate{
				ID:         q.QuestionID,
				Question:   q.Question,
				Similarity: &score,
				Accepted:   false,
				Reason:     ReasonBelowThreshold,
			})
		}
		return
	}

	for _, q := range questions {
		if st.quotaMet() {
			break
		}
		s.acceptQuestion(q, ReasonCrossSubject, types.SourceSemantic, res.Score, st, session)
	}
}

// writeAudit 写出审计记录；失败只记日志
func (s *Stage) writeAudit(ctx context.Context, req Request, t *types.TopicRequest, record Record) {
	record.RequestID = req.RequestID
	record.Subject = req.Subject
	record.Topic = t.TopicName
	record.CreatedAt = time.Now()

	if err := s.audit.Write(ctx, record); err != nil {
		s.logger.Warn("audit record dropped",
			zap.String("request_id", req.RequestID),
			zap.String("topic", t.TopicName),
			zap.Error(err),
		)
	}
}

// semanticVariants 由剥离形主题构造查询变体：
// 通用、考试标签限定、示例题限定。
func semanticVariants(stripped string, examTags []string) []string {
	variants := []string{stripped}
	if len(examTags) > 0 {
		variants = append(variants, stripped+" "+strings.Join(examTags, " "))
	}
	variants = append(variants, "sample question on "+stripped)
	return variants
}
