package httpclient

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"
)

// config 内部配置结构
type config struct {
	// Client 级配置
	baseURL   string
	timeout   time.Duration
	transport *http.Transport
	cookieJar http.CookieJar
	headers   map[string]string

	// Request 级配置
	ctx     context.Context
	queries url.Values
	body    io.Reader

	// 防护配置
	guardManager  GuardExecutor
	guardResource string
	guardFallback func(ctx context.Context, err error) (*Response, error)
	guardDisabled bool

	// 钩子
	beforeRequest func(*http.Request) error
	afterResponse func(*Response) error
}

// Option 配置选项类型
type Option func(*config)

// WithBaseURL 设置基础 URL
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTimeout 设置超时时间
func WithTimeout(duration time.Duration) Option {
	return func(c *config) {
		c.timeout = duration
	}
}

// WithHeader 设置单个 Header
func WithHeader(key, value string) Option {
	return func(c *config) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// WithHeaders 设置多个 Headers
func WithHeaders(headers map[string]string) Option {
	return func(c *config) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTransport 设置自定义 Transport
func WithTransport(transport *http.Transport) Option {
	return func(c *config) {
		c.transport = transport
	}
}

// WithInsecureSkipVerify 跳过 TLS 验证（不安全，仅用于开发环境）
func WithInsecureSkipVerify() Option {
	return func(c *config) {
		if c.transport == nil {
			c.transport = &http.Transport{}
		}
		if c.transport.TLSClientConfig == nil {
			c.transport.TLSClientConfig = &tls.Config{}
		}
		c.transport.TLSClientConfig.InsecureSkipVerify = true
	}
}

// WithCookieJar 设置 Cookie Jar
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *config) {
		c.cookieJar = jar
	}
}

// WithContext 设置 Context
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithQuery 设置单个 Query 参数
func WithQuery(key, value string) Option {
	return func(c *config) {
		if c.queries == nil {
			c.queries = make(url.Values)
		}
		c.queries.Set(key, value)
	}
}

// WithQueries 设置多个 Query 参数
func WithQueries(queries url.Values) Option {
	return func(c *config) {
		if c.queries == nil {
			c.queries = make(url.Values)
		}
		for k, vs := range queries {
			for _, v := range vs {
				c.queries.Add(k, v)
			}
		}
	}
}

// WithBody 设置原始 Body
func WithBody(reader io.Reader) Option {
	return func(c *config) {
		c.body = reader
	}
}

// WithBeforeRequest 设置请求前钩子
func WithBeforeRequest(fn func(*http.Request) error) Option {
	return func(c *config) {
		c.beforeRequest = fn
	}
}

// WithAfterResponse 设置响应后钩子
func WithAfterResponse(fn func(*Response) error) Option {
	return func(c *config) {
		c.afterResponse = fn
	}
}

// newConfig 创建默认配置
func newConfig() *config {
	return &config{
		timeout: 30 * time.Second,
		headers: make(map[string]string),
		queries: make(url.Values),
	}
}

// applyOptions 应用选项
func applyOptions(cfg *config, opts []Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
}

// merge 合并配置（Request 级配置覆盖 Client 级配置）
func (c *config) merge(other *config) *config {
	merged := &config{
		baseURL:       c.baseURL,
		timeout:       c.timeout,
		transport:     c.transport,
		cookieJar:     c.cookieJar,
		headers:       make(map[string]string),
		queries:       make(url.Values),
		guardManager:  c.guardManager,
		guardResource: c.guardResource,
		guardFallback: c.guardFallback,
		guardDisabled: c.guardDisabled,
		beforeRequest: c.beforeRequest,
		afterResponse: c.afterResponse,
	}

	for k, v := range c.headers {
		merged.headers[k] = v
	}
	for k, v := range other.headers {
		merged.headers[k] = v
	}

	for k, vs := range c.queries {
		for _, v := range vs {
			merged.queries.Add(k, v)
		}
	}
	for k, vs := range other.queries {
		for _, v := range vs {
			merged.queries.Add(k, v)
		}
	}

	if other.baseURL != "" {
		merged.baseURL = other.baseURL
	}
	if other.ctx != nil {
		merged.ctx = other.ctx
	}
	if other.body != nil {
		merged.body = other.body
	}
	if other.timeout > 0 {
		merged.timeout = other.timeout
	}

	if other.guardManager != nil {
		merged.guardManager = other.guardManager
	}
	if other.guardResource != "" {
		merged.guardResource = other.guardResource
	}
	if other.guardFallback != nil {
		merged.guardFallback = other.guardFallback
	}
	if other.guardDisabled {
		merged.guardDisabled = true
	}

	if other.beforeRequest != nil {
		merged.beforeRequest = other.beforeRequest
	}
	if other.afterResponse != nil {
		merged.afterResponse = other.afterResponse
	}

	return merged
}
