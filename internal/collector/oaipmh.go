package collector

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/LJTian/DigestHub/internal/filters"
)

// PreprintSource 是 OAI-PMH fetcher 产出条目的固定来源名，编排层据此分桶
const PreprintSource = "Eprint"

const oaiDateLayout = "2006-01-02T15:04:05Z"

// OAIPMHFetcher 抓取 ePrint 等预印本仓库的 ListRecords 响应。
// 响应可能很大，因此按 token 流扫描而不构建整棵 XML 树。
type OAIPMHFetcher struct {
	Client Getter
	Filter *filters.RelevanceFilter
}

// oaiRecord 仅在扫描期间存在，转换为至多一个 Item 后丢弃
type oaiRecord struct {
	identifier  string
	title       string
	creators    []string
	dates       []string
	description string
	subject     string
	datestamp   string
}

// 只收集这些元素的文本，按本地名匹配（dc:title 与 title 等价）
var oaiFields = map[string]struct{}{
	"identifier":  {},
	"title":       {},
	"creator":     {},
	"date":        {},
	"description": {},
	"subject":     {},
	"datestamp":   {},
}

func (r *oaiRecord) set(field, text string) {
	if text == "" {
		return
	}
	switch field {
	case "identifier":
		r.identifier = text
	case "title":
		r.title = text
	case "creator":
		r.creators = append(r.creators, text)
	case "date":
		r.dates = append(r.dates, text)
	case "description":
		r.description = text
	case "subject":
		r.subject = text
	case "datestamp":
		r.datestamp = text
	}
}

func (f *OAIPMHFetcher) Fetch(ctx context.Context, req Request) ([]Item, error) {
	body, err := f.Client.Get(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}

	records, err := scanRecords(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(records))
	for _, rec := range records {
		if it, ok := f.toItem(rec, req.Since); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// scanRecords 维护当前字段、文本缓冲和累加记录，遇到 </record> 时产出快照。
// 字段内的子元素（如 <i>）只贡献文本；<header> 中的 oai: 标识符不作为链接。
func scanRecords(r io.Reader) ([]oaiRecord, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		records  []oaiRecord
		acc      oaiRecord
		field    string
		depth    int
		inHeader bool
		text     strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErrorf("oai-pmh: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if field != "" {
				depth++
				continue
			}
			if name == "header" {
				inHeader = true
			}
			if _, ok := oaiFields[name]; ok && !(inHeader && name == "identifier") {
				field = name
				text.Reset()
			}
		case xml.CharData:
			if field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			name := t.Name.Local
			if field != "" {
				if depth > 0 {
					depth--
					continue
				}
				acc.set(field, strings.Join(strings.Fields(text.String()), " "))
				field = ""
				text.Reset()
				continue
			}
			switch name {
			case "header":
				inHeader = false
			case "record":
				records = append(records, acc)
				acc = oaiRecord{}
			}
		}
	}
	return records, nil
}

func (f *OAIPMHFetcher) toItem(rec oaiRecord, since time.Time) (Item, bool) {
	if len(rec.dates) == 0 || !isHTTPURL(rec.identifier) {
		return Item{}, false
	}
	t, err := time.Parse(oaiDateLayout, rec.dates[0])
	if err != nil {
		return Item{}, false
	}
	date := Day(t)
	if !keepSince(date, since) {
		return Item{}, false
	}
	if !f.Filter.Include(filters.Paper{
		Identifier:  rec.identifier,
		Title:       rec.title,
		Creators:    rec.creators,
		Description: rec.description,
		Subject:     rec.subject,
	}) {
		return Item{}, false
	}
	return Item{
		Title:   rec.title,
		URL:     rec.identifier,
		Date:    date,
		Source:  PreprintSource,
		Authors: JoinCreators(rec.creators),
	}, true
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// JoinCreators: A / A and B / A, B and C；空列表返回空串
func JoinCreators(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		last := len(names) - 1
		return strings.Join(names[:last], ", ") + " and " + names[last]
	}
}
