package mmse

import (
	"fmt"
	"strings"
	"time"
)

// 认知功能分级，阈值为包含下界，自高向低判定。
const (
	ClassNormal   = "认知功能正常"
	ClassMild     = "轻度认知障碍"
	ClassModerate = "中度认知障碍"
	ClassSevere   = "重度认知障碍"
)

// CategoryScore 是报告中一个认知领域的小计。
type CategoryScore struct {
	Label string `json:"label"`
	Score int    `json:"score"`
	Max   int    `json:"max"`
}

// Report 是一场评估的聚合结果。
type Report struct {
	Total          int             `json:"total"`
	TotalMax       int             `json:"totalMax"`
	Categories     []CategoryScore `json:"categories"`
	Classification string          `json:"classification"`
	Narrative      string          `json:"narrative"`
	Elapsed        time.Duration   `json:"-"`
	ElapsedSeconds int             `json:"elapsedSeconds"`
}

// Classify 按总分给出分级结论。
func Classify(total int) string {
	switch {
	case total >= 27:
		return ClassNormal
	case total >= 21:
		return ClassMild
	case total >= 10:
		return ClassModerate
	default:
		return ClassSevere
	}
}

func recommendationFor(classification string) string {
	switch classification {
	case ClassNormal:
		return "您的认知功能正常，请继续保持健康的生活方式！"
	case ClassMild:
		return "存在轻度认知障碍，建议加强认知训练和社交活动。"
	case ClassModerate:
		return "存在中度认知障碍，建议尽快就医进行专业评估。"
	default:
		return "存在重度认知障碍，请立即就医进行专业诊断和治疗。"
	}
}

// BuildReport 汇总已回答题目的得分并生成分级结论与说明文本。
// 各领域小计按记录自带的类别累加，因此即使评估提前中止、
// 记录不满26条也能得到一致的结果。记忆能力一栏合并即刻记忆与延迟回忆。
func BuildReport(records []Record, elapsed time.Duration) Report {
	sums := make(map[Category]int)
	maxes := make(map[Category]int)
	total := 0
	totalMax := 0
	for _, rec := range records {
		sums[rec.Category] += rec.Score
		maxes[rec.Category] += rec.MaxScore
		total += rec.Score
		totalMax += rec.MaxScore
	}

	categories := []CategoryScore{
		{Label: "时间定向", Score: sums[TimeOrientation], Max: maxes[TimeOrientation]},
		{Label: "地点定向", Score: sums[PlaceOrientation], Max: maxes[PlaceOrientation]},
		{Label: "记忆能力", Score: sums[Memory] + sums[Recall], Max: maxes[Memory] + maxes[Recall]},
		{Label: "注意计算", Score: sums[Attention], Max: maxes[Attention]},
		{Label: "语言能力", Score: sums[Language], Max: maxes[Language]},
	}

	classification := Classify(total)

	var b strings.Builder
	b.WriteString("MMSE评估完成！\n\n")
	fmt.Fprintf(&b, "总得分: %d/%d分\n", total, totalMax)
	fmt.Fprintf(&b, "评估结果: %s\n\n", classification)
	b.WriteString("分类得分:\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "• %s: %d/%d分\n", cat.Label, cat.Score, cat.Max)
	}
	fmt.Fprintf(&b, "\n评估用时: %d秒\n\n", int(elapsed.Seconds()))
	b.WriteString(recommendationFor(classification))

	return Report{
		Total:          total,
		TotalMax:       totalMax,
		Categories:     categories,
		Classification: classification,
		Narrative:      b.String(),
		Elapsed:        elapsed,
		ElapsedSeconds: int(elapsed.Seconds()),
	}
}
