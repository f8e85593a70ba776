package collector

import (
	"bytes"
	"context"
	"strings"

	"github.com/mmcdole/gofeed/rss"
)

// RSSFetcher 解析 RSS 2.0 频道
type RSSFetcher struct {
	Client Getter
}

func (f *RSSFetcher) Fetch(ctx context.Context, req Request) ([]Item, error) {
	body, err := f.Client.Get(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}

	feed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, parseErrorf("rss: %v", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			return nil, missingField("title")
		}
		link := strings.TrimSpace(it.Link)
		if link == "" {
			return nil, missingField("link")
		}
		if strings.TrimSpace(it.PubDate) == "" {
			return nil, missingField("pubDate")
		}
		date, err := ParseDate(it.PubDate, FeedDateLayouts...)
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
