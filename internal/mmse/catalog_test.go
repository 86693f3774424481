package mmse

import (
	"testing"
	"time"
)

// 2026-01-15 是星期四，冬季。
var fixedNow = time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

func TestBuildCatalogShape(t *testing.T) {
	items := Build(fixedNow, DefaultSiteAnswers())

	if len(items) != 26 {
		t.Fatalf("expected 26 items, got %d", len(items))
	}
	if got := TotalMax(items); got != 30 {
		t.Fatalf("expected total max 30, got %d", got)
	}
	for i, item := range items {
		if item.ID != i+1 {
			t.Fatalf("item %d has id %d, ordering broken", i, item.ID)
		}
		if item.MaxScore < 1 {
			t.Fatalf("item %d has max score %d", item.ID, item.MaxScore)
		}
	}
}

func TestBuildCatalogDateKeys(t *testing.T) {
	items := Build(fixedNow, DefaultSiteAnswers())

	cases := []struct {
		idx  int
		want []string
	}{
		{0, []string{"2026"}},
		{1, []string{"冬季"}},
		{2, []string{"1月", "一月"}},
		{3, []string{"15", "15号"}},
		{4, []string{"星期四", "周四"}},
	}

	for _, tc := range cases {
		got := items[tc.idx].AnswerKeys
		if len(got) != len(tc.want) {
			t.Fatalf("item %d: expected keys %v, got %v", tc.idx+1, tc.want, got)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("item %d: expected key %q, got %q", tc.idx+1, tc.want[i], got[i])
			}
		}
	}
}

func TestBuildCatalogSeasons(t *testing.T) {
	cases := []struct {
		month time.Month
		want  string
	}{
		{time.February, "冬季"},
		{time.March, "春季"},
		{time.July, "夏季"},
		{time.October, "秋季"},
		{time.December, "冬季"},
	}

	for _, tc := range cases {
		now := time.Date(2026, tc.month, 10, 12, 0, 0, 0, time.UTC)
		items := Build(now, DefaultSiteAnswers())
		if got := items[1].AnswerKeys[0]; got != tc.want {
			t.Fatalf("month %v: expected season %q, got %q", tc.month, tc.want, got)
		}
	}
}

func TestBuildCatalogSiteAnswers(t *testing.T) {
	site := SiteAnswers{
		Province: []string{"浙江"},
		City:     []string{"杭州"},
		Venue:    []string{"康复中心"},
		Floor:    []string{"3", "三楼"},
	}
	items := Build(fixedNow, site)

	if items[6].AnswerKeys[0] != "浙江" {
		t.Fatalf("province key not applied: %v", items[6].AnswerKeys)
	}
	if items[7].AnswerKeys[0] != "杭州" {
		t.Fatalf("city key not applied: %v", items[7].AnswerKeys)
	}
	if items[9].AnswerKeys[1] != "三楼" {
		t.Fatalf("floor keys not applied: %v", items[9].AnswerKeys)
	}
}
