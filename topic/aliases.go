package topic

// =============================================================================
// 🔗 静态别名表
// =============================================================================

// aliasGroups 同义主题分组
// 组内任一成员命中即返回整组；精确字符串匹配，不做模糊匹配。
var aliasGroups = [][]string{
	{"system design", "systems design", "distributed systems"},
	{"c++", "cpp", "c plus plus"},
	{"database", "databases", "dbms", "database management system"},
	{"javascript", "js", "ecmascript"},
	{"machine learning", "ml"},
	{"artificial intelligence", "ai"},
	{"object oriented programming", "object-oriented programming", "oop", "oops"},
	{"data structures", "data structures and algorithms", "dsa"},
	{"operating system", "operating systems", "os"},
	{"computer networks", "computer networking", "networking"},
	{"sql", "structured query language"},
	{"golang", "go programming", "go language"},
	{"natural language processing", "nlp"},
	{"probability", "probability theory"},
}

// aliasTable 成员字符串 → 所属分组
var aliasTable = func() map[string][]string {
	table := make(map[string][]string)
	for _, group := range aliasGroups {
		for _, member := range group {
			table[member] = group
		}
	}
	return table
}()

// Aliases 返回剥离形主题的别名集合。
// 输入命中别名表时返回完整分组，否则返回仅含输入自身的单元素集合。
func Aliases(stripped string) []string {
	if group, ok := aliasTable[stripped]; ok {
		out := make([]string, len(group))
		copy(out, group)
		return out
	}
	return []string{stripped}
}

// IsAlias 判断 candidate 是否为 stripped 的已知别名（含自身）
func IsAlias(stripped, candidate string) bool {
	for _, alias := range Aliases(stripped) {
		if alias == candidate {
			return true
		}
	}
	return false
}
