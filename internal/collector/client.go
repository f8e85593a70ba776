package collector

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent    = "DigestHubBot/1.0"
	defaultMaxBodyBytes = 10 << 20 // 10MB
)

// Getter 是 fetcher 依赖的网络协作者：对 endpoint 发起 GET 并返回原始内容
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// ResponseCache 由存储层实现，用于缓存 GET 响应；连接复用与缓存都属于网络层职责
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// HTTPClient 为所有 fetcher 共享的 HTTP 客户端
type HTTPClient struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

func NewHTTPClient(timeout time.Duration, maxBytes int64, cache ResponseCache) *HTTPClient {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cache != nil {
		transport = &cachingTransport{base: transport, cache: cache, maxBytes: maxBytes}
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		maxBytes:  maxBytes,
		userAgent: defaultUserAgent,
	}
}

// Transport 返回底层 RoundTripper，供 colly 等自带客户端的组件复用连接池与缓存
func (h *HTTPClient) Transport() http.RoundTripper {
	return h.client.Transport
}

func (h *HTTPClient) Timeout() time.Duration {
	return h.client.Timeout
}

func (h *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrNetwork, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrNetwork, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get %s: unexpected status %d", ErrNetwork, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNetwork, rawURL, err)
	}
	if int64(len(body)) > h.maxBytes {
		return nil, fmt.Errorf("%w: get %s: body exceeds %d bytes", ErrNetwork, rawURL, h.maxBytes)
	}
	return body, nil
}

// cachingTransport 对成功的 GET 响应做短期缓存，缓存故障时直接回源
type cachingTransport struct {
	base     http.RoundTripper
	cache    ResponseCache
	maxBytes int64
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base.RoundTrip(req)
	}

	key := cacheKey(req.URL.String())
	if raw, ok := t.cache.Get(req.Context(), key); ok {
		if resp, err := decodeCachedResponse(raw, req); err == nil {
			return resp, nil
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBytes+1))
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	// 超过上限的响应不缓存，剩余内容原样交给调用方判断
	if int64(len(body)) > t.maxBytes {
		resp.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(body), resp.Body), Closer: resp.Body}
		return resp, nil
	}
	resp.Body.Close()
	t.cache.Set(req.Context(), key, encodeCachedResponse(resp.Header.Get("Content-Type"), body))

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func cacheKey(rawURL string) string {
	h := sha1.Sum([]byte(rawURL))
	return "digest:http:" + hex.EncodeToString(h[:])
}

// 缓存值格式：首行为 Content-Type，其后为响应体
func encodeCachedResponse(contentType string, body []byte) []byte {
	out := make([]byte, 0, len(contentType)+1+len(body))
	out = append(out, strings.ReplaceAll(contentType, "\n", " ")...)
	out = append(out, '\n')
	return append(out, body...)
}

func decodeCachedResponse(raw []byte, req *http.Request) (*http.Response, error) {
	idx := bytes.IndexByte(raw, '\n')
	if idx < 0 {
		log.Printf("cache: drop malformed entry for %s", req.URL)
		return nil, errors.New("malformed cache entry")
	}
	body := raw[idx+1:]

	header := make(http.Header)
	if ct := string(raw[:idx]); ct != "" {
		header.Set("Content-Type", ct)
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

// contextTransport 把调用方的 ctx 绑定到每个请求上，用于不支持 ctx 的组件（colly）
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
