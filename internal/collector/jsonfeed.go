package collector

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// JSONFeedFetcher 抓取 Substack 风格的文章列表接口（/api/v1/posts/?limit=50）
type JSONFeedFetcher struct {
	Client Getter
}

type jsonPost struct {
	Title    *string `json:"title"`
	Slug     *string `json:"slug"`
	PostDate *string `json:"post_date"`
}

// post_date 形如 2024-10-01T00:00:00.000Z
var jsonFeedDateLayouts = []string{time.RFC3339}

func (f *JSONFeedFetcher) Fetch(ctx context.Context, req Request) ([]Item, error) {
	body, err := f.Client.Get(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}

	var posts []jsonPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, parseErrorf("json feed: %v", err)
	}

	base := postsBaseURL(req.Endpoint)
	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		if p.Title == nil {
			return nil, missingField("title")
		}
		if p.Slug == nil || *p.Slug == "" {
			return nil, missingField("slug")
		}
		if p.PostDate == nil {
			return nil, missingField("post_date")
		}
		date, err := ParseDate(*p.PostDate, jsonFeedDateLayouts...)
		if err != nil {
			return nil, err
		}
		if !keepSince(date, req.Since) {
			continue
		}
		items = append(items, Item{
			Title:  strings.TrimSpace(*p.Title),
			URL:    RewriteURL(base+"/p/"+*p.Slug, req.Rewrite),
			Date:   date,
			Source: req.Source,
		})
	}
	return items, nil
}

// postsBaseURL 去掉查询串与列表接口路径，得到站点根地址
func postsBaseURL(endpoint string) string {
	base, _, _ := strings.Cut(endpoint, "?")
	base = strings.TrimRight(base, "/")
	return strings.TrimSuffix(base, "/api/v1/posts")
}
