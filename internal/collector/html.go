package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gocolly/colly/v2"
)

// HTMLFetcher 适用于没有结构化 feed 的博客首页：由配置的选择器定位文章列表
type HTMLFetcher struct {
	Selectors Selectors
	Transport http.RoundTripper
	Timeout   time.Duration
}

func (f *HTMLFetcher) Fetch(ctx context.Context, req Request) ([]Item, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	layout, err := StrftimeLayout(f.Selectors.DateFormat)
	if err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(defaultUserAgent))
	transport := f.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	c.WithTransport(contextTransport{ctx: ctx, base: transport})
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	}

	var (
		items    []Item
		parseErr error
		typeErr  error
		found    bool
	)

	// colly 只对 HTML 响应触发 OnHTML，其他类型单独报错
	c.OnResponse(func(r *colly.Response) {
		if ct := r.Headers.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "html") {
			typeErr = parseErrorf("unexpected content type %q from %s", ct, req.Endpoint)
		}
	})

	// 只处理第一个匹配的文章容器
	c.OnHTML(f.Selectors.Container, func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true
		items, parseErr = f.extract(e.DOM, req, layout)
	})

	if err := c.Visit(req.Endpoint); err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrNetwork, req.Endpoint, err)
	}
	if typeErr != nil {
		return nil, typeErr
	}
	if !found {
		return nil, parseErrorf("no article wrapper found")
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return items, nil
}

func (f *HTMLFetcher) validate() error {
	for _, sel := range []struct{ name, expr string }{
		{"article", f.Selectors.Container},
		{"article item", f.Selectors.Item},
		{"title", f.Selectors.Title},
		{"URL", f.Selectors.Link},
		{"date", f.Selectors.Date},
	} {
		if _, err := cascadia.Compile(sel.expr); err != nil {
			return parseErrorf("invalid %s selector %q: %v", sel.name, sel.expr, err)
		}
	}
	return nil
}

func (f *HTMLFetcher) extract(wrapper *goquery.Selection, req Request, layout string) ([]Item, error) {
	var (
		items []Item
		err   error
	)
	wrapper.Find(f.Selectors.Item).EachWithBreak(func(_ int, article *goquery.Selection) bool {
		var it Item
		var keep bool
		it, keep, err = f.extractOne(article, req, layout)
		if err != nil {
			return false
		}
		if keep {
			items = append(items, it)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *HTMLFetcher) extractOne(article *goquery.Selection, req Request, layout string) (Item, bool, error) {
	titleSel := article.Find(f.Selectors.Title).First()
	if titleSel.Length() == 0 {
		return Item{}, false, missingField("title")
	}
	title := strings.TrimSpace(titleSel.Text())

	linkSel := article.Find(f.Selectors.Link).First()
	if linkSel.Length() == 0 {
		return Item{}, false, missingField("URL")
	}
	href, ok := linkSel.Attr("href")
	if !ok {
		return Item{}, false, missingField("href attribute")
	}

	dateSel := article.Find(f.Selectors.Date).First()
	if dateSel.Length() == 0 {
		return Item{}, false, missingField("date")
	}
	dateText := strings.TrimSpace(dateSel.Text())
	t, err := time.Parse(layout, dateText)
	if err != nil {
		return Item{}, false, fmt.Errorf("%w: %q does not match %q", ErrDateParse, dateText, f.Selectors.DateFormat)
	}
	date := Day(t)
	if !keepSince(date, req.Since) {
		return Item{}, false, nil
	}

	return Item{
		Title:  title,
		URL:    RewriteURL(resolveLink(req.Endpoint, href), req.Rewrite),
		Date:   date,
		Source: req.Source,
	}, true, nil
}

// resolveLink 拼接相对链接。列表页本身常位于 /blog 或 /posts 下，
// 而 href 通常已包含该段，因此先去掉 endpoint 末尾的这一段
func resolveLink(endpoint, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	rel := strings.TrimLeft(href, "/")
	base := strings.TrimRight(endpoint, "/")
	for _, seg := range []string{"/blog", "/posts"} {
		if strings.HasSuffix(base, seg) {
			base = strings.TrimSuffix(base, seg)
			break
		}
	}
	return base + "/" + rel
}
