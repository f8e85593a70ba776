package collector

import (
	"fmt"
	"strings"

	"github.com/LJTian/DigestHub/internal/filters"
)

// FeedType 标识数据源格式
type FeedType string

const (
	FeedRSS    FeedType = "rss"
	FeedAtom   FeedType = "atom"
	FeedJSON   FeedType = "json"
	FeedHTML   FeedType = "html"
	FeedOAIPMH FeedType = "oai-pmh"
)

var feedTypeAliases = map[string]FeedType{
	"rss":        FeedRSS,
	"atom":       FeedAtom,
	"json":       FeedJSON,
	"json-feed":  FeedJSON,
	"jsonfeed":   FeedJSON,
	"substack":   FeedJSON,
	"html":       FeedHTML,
	"customhtml": FeedHTML,
	"dom-scrape": FeedHTML,
	"oai-pmh":    FeedOAIPMH,
	"oaipmh":     FeedOAIPMH,
	"eprint":     FeedOAIPMH,
}

// ParseFeedType 不区分大小写；未知类型原样保留，由 Factory 在分发前拒绝
func ParseFeedType(s string) FeedType {
	key := strings.ToLower(strings.TrimSpace(s))
	if ft, ok := feedTypeAliases[key]; ok {
		return ft
	}
	return FeedType(key)
}

func (t *FeedType) UnmarshalText(b []byte) error {
	*t = ParseFeedType(string(b))
	return nil
}

// Selectors 为 HTML 抓取所需的五个 CSS 选择器和 strftime 日期模式
type Selectors struct {
	Container  string `json:"article_selector"`
	Item       string `json:"article_item_selector"`
	Title      string `json:"title_selector"`
	Link       string `json:"url_selector"`
	Date       string `json:"date_selector"`
	DateFormat string `json:"date_format"`
}

// Source 描述一个需要轮询的数据源，加载后不再修改
type Source struct {
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Type      FeedType   `json:"feed_type"`
	Selectors *Selectors `json:"custom_selectors,omitempty"`
	Rewrite   string     `json:"custom_url_replace,omitempty"`
}

func (s Source) Request() Request {
	return Request{
		Endpoint: s.URL,
		Source:   s.Name,
		Rewrite:  s.Rewrite,
	}
}

// Factory 按 FeedType 选择 fetcher；所有 fetcher 共享同一个网络客户端和相关性过滤器
type Factory struct {
	Client    *HTTPClient
	Relevance *filters.RelevanceFilter
}

// For 在任何网络请求之前完成配置校验
func (f *Factory) For(src Source) (Fetcher, error) {
	switch src.Type {
	case FeedRSS:
		return &RSSFetcher{Client: f.Client}, nil
	case FeedAtom:
		return &AtomFetcher{Client: f.Client}, nil
	case FeedJSON:
		return &JSONFeedFetcher{Client: f.Client}, nil
	case FeedHTML:
		if src.Selectors == nil {
			return nil, fmt.Errorf("%w: html source %q has no custom_selectors", ErrConfig, src.Name)
		}
		return &HTMLFetcher{
			Selectors: *src.Selectors,
			Transport: f.Client.Transport(),
			Timeout:   f.Client.Timeout(),
		}, nil
	case FeedOAIPMH:
		if f.Relevance == nil {
			return nil, fmt.Errorf("%w: preprint source %q needs a relevance config", ErrConfig, src.Name)
		}
		return &OAIPMHFetcher{Client: f.Client, Filter: f.Relevance}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeedType, string(src.Type))
	}
}
