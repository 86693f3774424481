package mmse

// Category 表示量表题目所属的认知领域。
type Category string

const (
	TimeOrientation  Category = "时间定向"
	PlaceOrientation Category = "地点定向"
	Memory           Category = "记忆力"
	Attention        Category = "注意力和计算"
	Recall           Category = "回忆"
	Language         Category = "语言功能"
)

// ScoringType 决定题目使用哪种评分算法。
type ScoringType string

const (
	// TextMatch 双向子串匹配：答案包含任一参考答案，或参考答案包含答案，即得满分。
	TextMatch ScoringType = "text"
	// MemoryMatch 按命中的记忆词计分，上限为题目满分。
	MemoryMatch ScoringType = "memory"
	// ActionAck 动作/绘画类题目，答案含任一确认关键词即得满分。
	ActionAck ScoringType = "action"
)

// Item 是量表中的一道题目，目录构建后不再修改。
type Item struct {
	ID          int         `json:"id"`
	Category    Category    `json:"category"`
	Prompt      string      `json:"prompt"`
	MaxScore    int         `json:"maxScore"`
	Type        ScoringType `json:"type"`
	AnswerKeys  []string    `json:"answerKeys,omitempty"`
	MemoryWords []string    `json:"memoryWords,omitempty"`
}

// Record 保存一道已回答题目的结果。
type Record struct {
	ItemID   int      `json:"itemId"`
	Category Category `json:"category"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Score    int      `json:"score"`
	MaxScore int      `json:"maxScore"`
}

// TotalMax 返回目录的满分（参考目录为30分）。
func TotalMax(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.MaxScore
	}
	return total
}
