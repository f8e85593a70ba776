package collector

import (
	"fmt"
	"strings"
	"time"
)

// FeedDateLayouts 为 RSS/Atom 等通用场景的候选格式，按顺序尝试。
// 各格式形状互斥，顺序只影响异常输入。
var FeedDateLayouts = []string{
	time.RFC1123,                    // Tue, 01 Oct 2024 12:00:00 MST
	"Mon, 02 Jan 2006 15:04:05 GMT", // 字面量 GMT
	time.RFC1123Z,                   // Tue, 01 Oct 2024 12:00:00 +0000
	// RFC 822 允许一位数的日
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 GMT",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,                    // 2024-10-01T12:00:00+00:00，也接受 Z 与小数秒
	time.DateOnly,                   // 2024-10-01
	"2006-01-02T15:04:05Z",
}

// ParseDate 依次尝试 layouts，返回第一个成功解析出的日历日期（UTC 零点）。
// 时分秒与时区被丢弃，保留原文中写明的日期。
func ParseDate(s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unable to parse date %q", ErrDateParse, s)
}

// Day 截断为 t 所在时区的日历日期，并以 UTC 零点表示
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var strftimeDirectives = map[string]string{
	"Y":   "2006",
	"y":   "06",
	"m":   "1",
	"d":   "2",
	"e":   "_2",
	"B":   "January",
	"b":   "Jan",
	"h":   "Jan",
	"A":   "Monday",
	"a":   "Mon",
	"H":   "15",
	"I":   "3",
	"M":   "04",
	"S":   "05",
	"p":   "PM",
	"Z":   "MST",
	"z":   "-0700",
	":z":  "-07:00",
	"F":   "2006-01-02",
	"T":   "15:04:05",
	"D":   "1/2/06",
	"j":   "002",
	"%":   "%",
	"f":   "",
	".f":  "",
	".3f": "",
	".6f": "",
	".9f": "",
}

// StrftimeLayout 把 strftime 风格的日期模式（如 "%B %d, %Y"）转换为 Go layout。
// 数字类指令使用非定宽形式，"1" 与 "01" 都能解析；小数秒由 time.Parse 自动接受。
func StrftimeLayout(pattern string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		rest := pattern[i+1:]
		matched := ""
		for _, key := range []string{".3f", ".6f", ".9f", ".f", ":z"} {
			if strings.HasPrefix(rest, key) {
				matched = key
				break
			}
		}
		if matched == "" && len(rest) > 0 {
			matched = rest[:1]
		}
		layout, ok := strftimeDirectives[matched]
		if matched == "" || !ok {
			return "", parseErrorf("unsupported date directive %q in %q", "%"+matched, pattern)
		}
		b.WriteString(layout)
		i += len(matched)
	}
	return b.String(), nil
}
