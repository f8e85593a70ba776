package collector

import (
	"context"
	"time"
)

// Item 统一采集后的基础结构，由 fetcher 创建后不再修改
type Item struct {
	Title string    `json:"title"`
	URL   string    `json:"url"`
	Date  time.Time `json:"date"`
	// Source 为数据源名称；预印本统一为 PreprintSource
	Source string `json:"source"`
	// Authors 为空表示无作者信息
	Authors string `json:"authors,omitempty"`
}

// Request 描述一次抓取所需的全部输入
type Request struct {
	Endpoint string
	Since    time.Time
	Source   string
	// Rewrite 形如 "OLD>NEW"，为空表示不改写
	Rewrite string
}

// Fetcher 抽象每一种数据源格式。
// 返回的 Item 均满足 Date >= req.Since；任意条目缺少必填字段时整个源失败。
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]Item, error)
}

// Outcome 是单个数据源的抓取结果：要么是 Items，要么是 Err
type Outcome struct {
	Source string
	Items  []Item
	Err    error
}

// keepSince 判断日期是否不早于阈值
func keepSince(date, since time.Time) bool {
	return !date.Before(Day(since))
}
