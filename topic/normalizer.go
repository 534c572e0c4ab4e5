package topic

import (
	"regexp"
	"strings"
)

// =============================================================================
// 🔤 主题名规范化
// =============================================================================

// Normalized 规范化后的主题名
// 每次查询即时重算，不做持久化。
type Normalized struct {
	// 原始输入
	Original string

	// 规范形：小写、空白折叠、去除 [\w\s+&-] 以外字符
	Normalized string

	// 剥离形：规范形去掉难度形容词与前导限定短语
	Stripped string

	// 别名集合（含剥离形自身）
	Aliases []string
}

var (
	// 保留字母数字、下划线、空白、+ & -
	invalidChars = regexp.MustCompile(`[^\w\s+&-]`)
	multiSpace   = regexp.MustCompile(`\s+`)

	// 前导限定短语，of/to 连接词可有可无
	leadQualifier = regexp.MustCompile(`^(?:concepts?|core|basics?|fundamentals?|introduction|overview|principles?|essentials?)(?:\s+(?:of|to))?\s+`)
)

// 难度形容词，按整词剔除
var difficultyWords = map[string]struct{}{
	"basic":        {},
	"basics":       {},
	"advanced":     {},
	"easy":         {},
	"hard":         {},
	"difficult":    {},
	"simple":       {},
	"intro":        {},
	"introductory": {},
	"beginner":     {},
	"beginners":    {},
	"intermediate": {},
	"elementary":   {},
}

// Normalize 规范化主题名
func Normalize(raw string) Normalized {
	normalized := normalizeText(raw)
	stripped := stripQualifiers(normalized)

	return Normalized{
		Original:   raw,
		Normalized: normalized,
		Stripped:   stripped,
		Aliases:    Aliases(stripped),
	}
}

// NormalizeSubject 规范化学科名：小写、空白折叠、去除非词非空白字符
func NormalizeSubject(subject string) string {
	s := strings.ToLower(strings.TrimSpace(subject))
	s = regexp.MustCompile(`[^\w\s]`).ReplaceAllString(s, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// Match 判断两个主题是否折叠到同一缓存桶：
// 剥离形相等，或别名集合相交。
func Match(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)

	if na.Stripped == nb.Stripped {
		return true
	}

	set := make(map[string]struct{}, len(na.Aliases))
	for _, alias := range na.Aliases {
		set[alias] = struct{}{}
	}
	for _, alias := range nb.Aliases {
		if _, ok := set[alias]; ok {
			return true
		}
	}
	return false
}

func normalizeText(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = invalidChars.ReplaceAllString(s, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// stripQualifiers 去掉难度形容词与前导限定短语，迭代至不动点。
// 先剥离前导短语再剔除难度词：避免 "introduction to basics of X"
// 这类叠加输入留下悬空的连接词。若剥离后为空则回退到规范形，保证幂等。
func stripQualifiers(normalized string) string {
	s := normalized
	for {
		next := s
		for {
			trimmed := leadQualifier.ReplaceAllString(next, "")
			if trimmed == next {
				break
			}
			next = trimmed
		}
		next = removeDifficultyWords(next)
		if next == s {
			break
		}
		s = next
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return normalized
	}
	return s
}

func removeDifficultyWords(s string) string {
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := difficultyWords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
