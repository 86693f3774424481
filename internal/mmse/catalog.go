package mmse

import (
	"fmt"
	"time"
)

// SiteAnswers 是地点定向题的参考答案，由站点管理员确认后配置。
type SiteAnswers struct {
	Province []string
	City     []string
	Venue    []string
	Floor    []string
}

// DefaultSiteAnswers 返回未配置站点信息时的兜底答案。
func DefaultSiteAnswers() SiteAnswers {
	return SiteAnswers{
		Province: []string{"广东", "北京", "上海", "浙江", "江苏"},
		City:     []string{"深圳", "北京", "上海", "广州", "杭州"},
		Venue:    []string{"医院", "诊所", "康复中心"},
		Floor:    []string{"1", "2", "3", "4", "5", "一楼", "二楼", "三楼", "四楼", "五楼"},
	}
}

var chineseMonths = []string{
	"一月", "二月", "三月", "四月", "五月", "六月",
	"七月", "八月", "九月", "十月", "十一月", "十二月",
}

var weekdayFull = []string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}
var weekdayShort = []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

func seasonOf(month time.Month) string {
	switch {
	case month >= time.March && month <= time.May:
		return "春季"
	case month >= time.June && month <= time.August:
		return "夏季"
	case month >= time.September && month <= time.November:
		return "秋季"
	default:
		return "冬季"
	}
}

// Build 构建量表目录。时间定向题的参考答案由 now 推导，
// 因此目录在进程启动时构建一次即可；测试可传入固定时间。
func Build(now time.Time, site SiteAnswers) []Item {
	month := int(now.Month())
	day := now.Day()
	weekday := int(now.Weekday())

	return []Item{
		// 时间定向 (5分)
		{
			ID:         1,
			Category:   TimeOrientation,
			Prompt:     "现在是哪一年？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{fmt.Sprintf("%d", now.Year())},
		},
		{
			ID:         2,
			Category:   TimeOrientation,
			Prompt:     "现在是什么季节？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{seasonOf(now.Month())},
		},
		{
			ID:         3,
			Category:   TimeOrientation,
			Prompt:     "现在是哪个月？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{fmt.Sprintf("%d月", month), chineseMonths[month-1]},
		},
		{
			ID:         4,
			Category:   TimeOrientation,
			Prompt:     "今天是几号？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{fmt.Sprintf("%d", day), fmt.Sprintf("%d号", day)},
		},
		{
			ID:         5,
			Category:   TimeOrientation,
			Prompt:     "今天是星期几？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{weekdayFull[weekday], weekdayShort[weekday]},
		},
		// 地点定向 (5分)
		{
			ID:         6,
			Category:   PlaceOrientation,
			Prompt:     "我们现在在哪个国家？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"中国", "China"},
		},
		{
			ID:         7,
			Category:   PlaceOrientation,
			Prompt:     "我们现在在哪个省？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: site.Province,
		},
		{
			ID:         8,
			Category:   PlaceOrientation,
			Prompt:     "我们现在在哪个城市？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: site.City,
		},
		{
			ID:         9,
			Category:   PlaceOrientation,
			Prompt:     "我们现在在什么地方？（医院、学校、商场等）",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: site.Venue,
		},
		{
			ID:         10,
			Category:   PlaceOrientation,
			Prompt:     "我们现在在第几层楼？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: site.Floor,
		},
		// 记忆力 (3分)
		{
			ID:          11,
			Category:    Memory,
			Prompt:      "我会说三个词，请您记住它们：苹果、桌子、诚实",
			MaxScore:    3,
			Type:        MemoryMatch,
			MemoryWords: []string{"苹果", "桌子", "诚实"},
		},
		// 注意力和计算 (5分)
		{
			ID:         12,
			Category:   Attention,
			Prompt:     "请您算一下：100减去7等于多少？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"93"},
		},
		{
			ID:         13,
			Category:   Attention,
			Prompt:     "再从刚才的答案继续减去7，等于多少？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"86"},
		},
		{
			ID:         14,
			Category:   Attention,
			Prompt:     "再从刚才的答案继续减去7，等于多少？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"79"},
		},
		{
			ID:         15,
			Category:   Attention,
			Prompt:     "再从刚才的答案继续减去7，等于多少？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"72"},
		},
		{
			ID:         16,
			Category:   Attention,
			Prompt:     "最后从刚才的答案再减去7，等于多少？",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"65"},
		},
		// 回忆 (3分)
		{
			ID:          17,
			Category:    Recall,
			Prompt:      "还记得我刚才让您记住的三个词吗？请告诉我是什么？",
			MaxScore:    3,
			Type:        MemoryMatch,
			MemoryWords: []string{"苹果", "桌子", "诚实"},
		},
		// 语言功能 (9分)
		{
			ID:         18,
			Category:   Language,
			Prompt:     "请说出这是什么东西？(指向笔)",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"笔", "钢笔", "铅笔"},
		},
		{
			ID:         19,
			Category:   Language,
			Prompt:     "请重复说一遍：四十四只石狮子",
			MaxScore:   1,
			Type:       TextMatch,
			AnswerKeys: []string{"四十四只石狮子"},
		},
		{
			ID:       20,
			Category: Language,
			Prompt:   "现在请您闭上眼睛",
			MaxScore: 1,
			Type:     ActionAck,
		},
		{
			ID:       21,
			Category: Language,
			Prompt:   "请您用右手拿这张纸",
			MaxScore: 1,
			Type:     ActionAck,
		},
		{
			ID:       22,
			Category: Language,
			Prompt:   "然后对折这张纸",
			MaxScore: 1,
			Type:     ActionAck,
		},
		{
			ID:       23,
			Category: Language,
			Prompt:   "最后把纸放在桌子上",
			MaxScore: 1,
			Type:     ActionAck,
		},
		{
			ID:       24,
			Category: Language,
			Prompt:   "请您读这句话并照着做：'闭上眼睛'",
			MaxScore: 1,
			Type:     ActionAck,
		},
		{
			ID:       25,
			Category: Language,
			Prompt:   "请您写一个完整的句子",
			MaxScore: 1,
			Type:     ActionAck,
		},
		{
			ID:       26,
			Category: Language,
			Prompt:   "请您照着画这个图形(复杂五边形)",
			MaxScore: 1,
			Type:     ActionAck,
		},
	}
}
