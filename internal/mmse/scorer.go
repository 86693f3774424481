package mmse

import "strings"

// ackKeywords 是动作/绘画类题目的全局确认关键词，
// 覆盖口头应答和各任务的完成表述。
var ackKeywords = []string{
	"好的", "行", "可以", "完成了", "做完了",
	"闭上", "拿纸", "对折", "放在", "桌子上", "眼睛", "画好",
}

// Score 对一道题目的原始回答计分，返回 [0, item.MaxScore] 区间内的整数。
// 空白回答一律得0分。该函数不做任何 I/O，也绝不 panic：
// 单题评分失败不允许中断整场评估。
func Score(answer string, item Item) int {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0
	}
	lower := strings.ToLower(answer)

	switch item.Type {
	case TextMatch:
		for _, key := range item.AnswerKeys {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			// 双向子串：容忍“今年是2026年”这类带填充词的回答，
			// 也容忍只说出答案核心部分的简短回答。
			if strings.Contains(lower, key) || strings.Contains(key, lower) {
				return item.MaxScore
			}
		}
		return 0

	case MemoryMatch:
		score := 0
		for _, word := range item.MemoryWords {
			if strings.Contains(lower, strings.ToLower(word)) {
				score++
			}
		}
		if score > item.MaxScore {
			score = item.MaxScore
		}
		return score

	case ActionAck:
		for _, keyword := range ackKeywords {
			if strings.Contains(lower, keyword) {
				return item.MaxScore
			}
		}
		return 0
	}

	// 未知题型按异常输入处理，得0分。
	return 0
}
