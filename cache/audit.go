package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// 📋 审计轨迹
// =============================================================================

// Reason 候选题目的接受/拒绝原因
type Reason string

const (
	// ReasonExactFingerprint 步骤 1 指纹精确命中
	ReasonExactFingerprint Reason = "exact_fingerprint"
	// ReasonTopicSet 步骤 2 主题集命中
	ReasonTopicSet Reason = "topic_set"
	// ReasonTopicMatch 步骤 3 规则 (a)：主题相等且过阈值
	ReasonTopicMatch Reason = "topic_match"
	// ReasonAliasMatch 步骤 3 规则 (b)：别名命中且过阈值
	ReasonAliasMatch Reason = "alias_match"
	// ReasonSubjectMatch 步骤 3 规则 (c)：仅学科匹配且过阈值
	ReasonSubjectMatch Reason = "subject_match"
	// ReasonCrossSubject 步骤 4 跨学科回退命中
	ReasonCrossSubject Reason = "cross_subject_fallback"
	// ReasonSessionDedupe 题目 ID 已在本会话出现，拒绝
	ReasonSessionDedupe Reason = "session_dedupe"
	// ReasonBelowThreshold 相似度未达到任何可接受阈值，拒绝
	ReasonBelowThreshold Reason = "similarity_below_threshold"
	// ReasonMalformedEntry 条目负载解析失败，拒绝
	ReasonMalformedEntry Reason = "malformed_entry"
)

// Candidate 单个被检视的候选题目
// 仅存活于一次 processTopic 调用，随审计记录落盘。
type Candidate struct {
	ID          string   `json:"id"`
	Question    string   `json:"question,omitempty"`
	TopicNorm   string   `json:"topic_norm,omitempty"`
	SubjectNorm string   `json:"subject_norm,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty"`
	Accepted    bool     `json:"accepted"`
	Reason      Reason   `json:"reason"`
}

// Record 每主题每请求一条的审计记录
type Record struct {
	RequestID    string      `json:"request_id"`
	Subject      string      `json:"subject"`
	Topic        string      `json:"topic"`
	TargetCached int         `json:"target_cached"`
	Accepted     int         `json:"accepted"`
	Misses       int         `json:"misses"`
	Skipped      bool        `json:"skipped"`
	Candidates   []Candidate `json:"candidates,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Sink 审计日志汇
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// ZapSink 通过 zap 输出结构化审计记录
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink 创建日志审计汇
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.With(zap.String("component", "cache_audit"))}
}

// Write 输出一条审计记录
func (s *ZapSink) Write(_ context.Context, record Record) error {
	candidates := make([]string, 0, len(record.Candidates))
	for _, c := range record.Candidates {
		candidates = append(candidates, c.ID+":"+string(c.Reason))
	}

	s.logger.Info("cache audit",
		zap.String("request_id", record.RequestID),
		zap.String("subject", record.Subject),
		zap.String("topic", record.Topic),
		zap.Int("target_cached", record.TargetCached),
		zap.Int("accepted", record.Accepted),
		zap.Int("misses", record.Misses),
		zap.Bool("skipped", record.Skipped),
		zap.Strings("candidates", candidates),
	)
	return nil
}

// NopSink 丢弃所有记录的审计汇
type NopSink struct{}

// Write 丢弃记录
func (NopSink) Write(context.Context, Record) error { return nil }
