package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/LJTian/DigestHub/internal/collector"
)

// Entry 是交给渲染层的条目，ID 由 URL 生成
type Entry struct {
	ID string `json:"id"`
	collector.Item
}

// FetchError 记录单个数据源的失败原因
type FetchError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Digest 是一轮采集的最终结果：预印本与其他条目分桶，各自按日期升序
type Digest struct {
	Since       time.Time    `json:"since"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Preprints   []Entry      `json:"preprints"`
	Others      []Entry      `json:"others"`
	Errors      []FetchError `json:"errors"`
}

// DigestProcessor 汇总各源结果
type DigestProcessor struct {
	now func() time.Time
}

func NewDigestProcessor() *DigestProcessor {
	return &DigestProcessor{now: time.Now}
}

// Process 按 outcomes 的顺序（即到达顺序）分桶，再稳定排序，日期相同保持原顺序
func (p *DigestProcessor) Process(since time.Time, outcomes []collector.Outcome) Digest {
	d := Digest{
		Since:       collector.Day(since),
		GeneratedAt: p.now(),
		Preprints:   []Entry{},
		Others:      []Entry{},
		Errors:      []FetchError{},
	}

	for _, o := range outcomes {
		if o.Err != nil {
			d.Errors = append(d.Errors, FetchError{Source: o.Source, Message: o.Err.Error()})
			continue
		}
		for _, it := range o.Items {
			it.Title = strings.TrimSpace(it.Title)
			e := Entry{ID: hashURL(it.URL), Item: it}
			if it.Source == collector.PreprintSource {
				d.Preprints = append(d.Preprints, e)
			} else {
				d.Others = append(d.Others, e)
			}
		}
	}

	sortByDate(d.Preprints)
	sortByDate(d.Others)
	return d
}

func sortByDate(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
