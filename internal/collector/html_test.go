package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const polygonPage = `<html>
  <body>
    <div class="blog-list_wrapper w-dyn-list">
      <div class="blog-list_item-wrapper w-dyn-item">
        <a href="/blog/test-article" class="blog-list_item w-inline-block">
          <h3 class="blog-list_heading">Test Polygon Article</h3>
          <div class="text-size-tiny text-style-label">October 1, 2024</div>
        </a>
      </div>
      <div class="blog-list_item-wrapper w-dyn-item">
        <a href="https://other.com/abs" class="blog-list_item w-inline-block">
          <h3 class="blog-list_heading">Absolute Link</h3>
          <div class="text-size-tiny text-style-label">September 20, 2024</div>
        </a>
      </div>
      <div class="blog-list_item-wrapper w-dyn-item">
        <a href="/blog/old" class="blog-list_item w-inline-block">
          <h3 class="blog-list_heading">Old Article</h3>
          <div class="text-size-tiny text-style-label">August 2, 2024</div>
        </a>
      </div>
    </div>
    <div class="blog-list_wrapper w-dyn-list">
      <div class="blog-list_item-wrapper w-dyn-item">
        <a href="/ignored" class="blog-list_item w-inline-block">
          <h3 class="blog-list_heading">Second Wrapper</h3>
          <div class="text-size-tiny text-style-label">October 3, 2024</div>
        </a>
      </div>
    </div>
  </body>
</html>`

var polygonSelectors = Selectors{
	Container:  ".blog-list_wrapper.w-dyn-list",
	Item:       ".blog-list_item-wrapper.w-dyn-item",
	Title:      ".blog-list_heading",
	Link:       ".blog-list_item.w-inline-block",
	Date:       ".text-size-tiny.text-style-label",
	DateFormat: "%B %d, %Y",
}

// pageServer 在任意路径返回 page，并统计请求次数
func pageServer(t *testing.T, page string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newHTMLFetcher(sel Selectors) *HTMLFetcher {
	c := newTestClient()
	return &HTMLFetcher{Selectors: sel, Transport: c.Transport(), Timeout: c.Timeout()}
}

func TestHTMLFetcher(t *testing.T) {
	srv, _ := pageServer(t, polygonPage)
	f := newHTMLFetcher(polygonSelectors)

	items, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "TestPolygonBlog"})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items from the first wrapper, got %d: %+v", len(items), items)
	}
	if items[0].Title != "Test Polygon Article" {
		t.Fatalf("unexpected title: %q", items[0].Title)
	}
	if want := srv.URL + "/blog/test-article"; items[0].URL != want {
		t.Fatalf("URL = %q, want %q", items[0].URL, want)
	}
	if !items[0].Date.Equal(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", items[0].Date)
	}
	if items[1].URL != "https://other.com/abs" {
		t.Fatalf("absolute href should be kept verbatim, got %q", items[1].URL)
	}
}

func TestHTMLFetcherStripsBlogSegmentAndRewrites(t *testing.T) {
	srv, _ := pageServer(t, polygonPage)
	f := newHTMLFetcher(polygonSelectors)

	items, err := f.Fetch(context.Background(), Request{
		Endpoint: srv.URL + "/blog/",
		Since:    testSince,
		Source:   "TestPolygonBlog",
		Rewrite:  "/blog/>/articles/",
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if want := srv.URL + "/articles/test-article"; items[0].URL != want {
		t.Fatalf("URL = %q, want %q", items[0].URL, want)
	}
}

func TestHTMLFetcherNoWrapper(t *testing.T) {
	srv, _ := pageServer(t, `<html><body><p>nothing here</p></body></html>`)
	f := newHTMLFetcher(polygonSelectors)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrParse) || !strings.Contains(err.Error(), "no article wrapper found") {
		t.Fatalf("expected no wrapper parse error, got %v", err)
	}
}

func TestHTMLFetcherMissingFieldFailsWholeSource(t *testing.T) {
	page := strings.Replace(polygonPage, `<h3 class="blog-list_heading">Old Article</h3>`, "", 1)
	srv, _ := pageServer(t, page)
	f := newHTMLFetcher(polygonSelectors)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrParse) || !strings.Contains(err.Error(), "title") {
		t.Fatalf("expected missing title parse error, got %v", err)
	}
}

func TestHTMLFetcherMissingHref(t *testing.T) {
	page := strings.Replace(polygonPage, `href="/blog/old" `, "", 1)
	srv, _ := pageServer(t, page)
	f := newHTMLFetcher(polygonSelectors)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrParse) || !strings.Contains(err.Error(), "href") {
		t.Fatalf("expected missing href parse error, got %v", err)
	}
}

func TestHTMLFetcherUnparsableDate(t *testing.T) {
	page := strings.Replace(polygonPage, "August 2, 2024", "last week", 1)
	srv, _ := pageServer(t, page)
	f := newHTMLFetcher(polygonSelectors)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrDateParse) {
		t.Fatalf("expected ErrDateParse, got %v", err)
	}
}

func TestHTMLFetcherInvalidSelectorSkipsNetwork(t *testing.T) {
	srv, hits := pageServer(t, polygonPage)
	sel := polygonSelectors
	sel.Title = "h3[["
	f := newHTMLFetcher(sel)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for invalid selector, got %v", err)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Fatalf("invalid selector should be rejected before the request")
	}
}

func TestHTMLFetcherRejectsNonHTML(t *testing.T) {
	srv := serve(t, "text/plain; charset=utf-8", polygonPage)
	f := newHTMLFetcher(polygonSelectors)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrParse) || !strings.Contains(err.Error(), "content type") {
		t.Fatalf("expected content type parse error, got %v", err)
	}
}

func TestHTMLFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	f := newHTMLFetcher(polygonSelectors)

	_, err := f.Fetch(context.Background(), Request{Endpoint: srv.URL, Since: testSince, Source: "S"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestResolveLink(t *testing.T) {
	cases := []struct {
		endpoint, href, want string
	}{
		{"https://e.com/blog", "/blog/x", "https://e.com/blog/x"},
		{"https://e.com/blog/", "blog/x", "https://e.com/blog/x"},
		{"https://e.com/posts", "/posts/x", "https://e.com/posts/x"},
		{"https://e.com", "/x", "https://e.com/x"},
		{"https://e.com/myblog", "/x", "https://e.com/myblog/x"},
		{"https://e.com/blog", "https://cdn.e.com/x", "https://cdn.e.com/x"},
		{"https://e.com/blog", "//x", "https://e.com/x"},
	}
	for _, c := range cases {
		if got := resolveLink(c.endpoint, c.href); got != c.want {
			t.Fatalf("resolveLink(%q, %q) = %q, want %q", c.endpoint, c.href, got, c.want)
		}
	}
}
