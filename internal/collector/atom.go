package collector

import (
	"bytes"
	"context"
	"strings"

	"github.com/mmcdole/gofeed/atom"
)

// AtomFetcher 解析 Atom 1.0 feed
type AtomFetcher struct {
	Client Getter
}

func (f *AtomFetcher) Fetch(ctx context.Context, req Request) ([]Item, error) {
	body, err := f.Client.Get(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}

	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, parseErrorf("atom: %v", err)
	}

	items := make([]Item, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			return nil, missingField("title")
		}
		link := primaryLink(entry.Links)
		if link == "" {
			return nil, missingField("link")
		}
		raw := entry.Published
		if strings.TrimSpace(raw) == "" {
			raw = entry.Updated
		}
		if strings.TrimSpace(raw) == "" {
			return nil, missingField("published/updated")
		}
		date, err := ParseDate(raw, FeedDateLayouts...)
		if err != nil {
			return nil, err
		}
		if !keepSince(date, req.Since) {
			continue
		}
		items = append(items, Item{
			Title:  title,
			URL:    RewriteURL(link, req.Rewrite),
			Date:   date,
			Source: req.Source,
		})
	}
	return items, nil
}

// primaryLink 优先取 rel="alternate" 或未标注 rel 的链接，否则取第一个
func primaryLink(links []*atom.Link) string {
	var first string
	for _, l := range links {
		if l == nil || strings.TrimSpace(l.Href) == "" {
			continue
		}
		href := strings.TrimSpace(l.Href)
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}
		if first == "" {
			first = href
		}
	}
	return first
}
