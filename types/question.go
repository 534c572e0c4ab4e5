package types

// =============================================================================
// 📝 题目与主题请求类型
// =============================================================================

// QuestionSource 题目的缓存命中来源
type QuestionSource string

const (
	// SourceExact 精确匹配命中（指纹或主题集）
	SourceExact QuestionSource = "exact"
	// SourceSemantic 语义相似度命中
	SourceSemantic QuestionSource = "semantic"
)

// TopicRequest 单个主题的出题请求
// 由上游规划器创建；QuotaAllocator 会改写 NoOfQuestions，
// 缓存阶段命中后减少 NoOfQuestions 并填充 Cached。
type TopicRequest struct {
	// 主题名（自由文本，未规范化）
	TopicName string `json:"topicName"`

	// 难度标签序列
	Level []string `json:"level,omitempty"`

	// 仍需生成的题数（非负）
	NoOfQuestions int `json:"noOfQuestions"`

	// 缓存命中的题目
	Cached []CachedQuestion `json:"cached,omitempty"`

	// 配额调整前的原始请求题数（用于上报）
	OriginalRequested int `json:"originalRequested,omitempty"`
}

// CachedQuestion 从缓存条目解析出的单道题目
type CachedQuestion struct {
	QuestionID    string         `json:"question_id"`
	Question      string         `json:"question"`
	Options       []string       `json:"options,omitempty"`
	CorrectAnswer string         `json:"correct_answer"`
	Explanation   string         `json:"explanation,omitempty"`
	Difficulty    string         `json:"difficulty,omitempty"`
	Topic         string         `json:"topic"`
	Subject       string         `json:"subject,omitempty"`
	CacheSource   QuestionSource `json:"cache_source,omitempty"`
	CacheScore    float64        `json:"cache_score,omitempty"`
}

// Clone 返回请求的深拷贝（Cached 与 Level 独立）
func (t *TopicRequest) Clone() *TopicRequest {
	if t == nil {
		return nil
	}
	c := *t
	if t.Level != nil {
		c.Level = append([]string(nil), t.Level...)
	}
	if t.Cached != nil {
		c.Cached = append([]CachedQuestion(nil), t.Cached...)
	}
	return &c
}
