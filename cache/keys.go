package cache

import (
	"strconv"
	"strings"

	"github.com/BaSui01/eduflow/topic"
)

// =============================================================================
// 🔑 缓存键构造
// =============================================================================

const (
	directPrefix   = "direct:"
	semanticPrefix = "semantic:"
	topicSetPrefix = "topicset:"
)

// rollingHash 32 位滚动哈希，取绝对值后十进制字符串化。
// 非加密哈希：键只需稳定，不需抗碰撞。
func rollingHash(s string) string {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	// int64 扩宽后取绝对值，避免 MinInt32 取负溢出
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 10)
}

// directKey 精确缓存键：direct:{hash(subject + ":" + query)}
func directKey(query, subject string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	s := topic.NormalizeSubject(subject)
	return directPrefix + rollingHash(s+":"+q)
}

// topicSetKey 主题集键：topicset:{subject}:{normalizedTopic}
func topicSetKey(subject, strippedTopic string) string {
	return topicSetPrefix + topic.NormalizeSubject(subject) + ":" + strippedTopic
}

// semanticKey 语义桶键：semantic:{subject}
func semanticKey(subject string) string {
	return semanticPrefix + topic.NormalizeSubject(subject)
}

// queryHash 语义桶内字段名：规范化查询的滚动哈希
func queryHash(query string) string {
	return rollingHash(strings.ToLower(strings.TrimSpace(query)))
}

// Fingerprint 步骤 1 的全限定指纹串，由原始主题名、学科与考试标签
// 确定性拼接而成。
func Fingerprint(topicName, subject string, examTags []string) string {
	var b strings.Builder
	b.WriteString("topic=")
	b.WriteString(strings.TrimSpace(topicName))
	b.WriteString("|subject=")
	b.WriteString(strings.TrimSpace(subject))
	b.WriteString("|tags=")
	b.WriteString(strings.Join(examTags, ","))
	return b.String()
}
