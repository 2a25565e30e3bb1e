// Package httpclient 提供带调用防护的 HTTP 客户端
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client HTTP 客户端
type Client struct {
	httpClient *http.Client
	config     *config
}

// NewClient 创建 HTTP 客户端
func NewClient(opts ...Option) *Client {
	cfg := newConfig()
	applyOptions(cfg, opts)

	if cfg.transport == nil {
		cfg.transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	httpClient := &http.Client{
		Timeout:   cfg.timeout,
		Transport: cfg.transport,
		Jar:       cfg.cookieJar,
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Do 执行 HTTP 请求
func (c *Client) Do(ctx context.Context, req *Request, opts ...Option) (*Response, error) {
	reqCfg := newConfig()
	applyOptions(reqCfg, opts)
	finalCfg := c.config.merge(reqCfg)

	if ctx == nil {
		ctx = context.Background()
	}
	if finalCfg.ctx != nil {
		ctx = finalCfg.ctx
	}

	// 拼接 baseURL
	if finalCfg.baseURL != "" && !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		req.URL = strings.TrimRight(finalCfg.baseURL, "/") + "/" + strings.TrimLeft(req.URL, "/")
	}

	for k, vs := range finalCfg.queries {
		for _, v := range vs {
			req.Query.Add(k, v)
		}
	}

	for k, v := range finalCfg.headers {
		if _, exists := req.Headers[k]; !exists {
			req.Headers[k] = v
		}
	}

	startTime := time.Now()

	resp, err := c.executeWithGuard(ctx, req, finalCfg)
	if err != nil {
		return nil, err
	}

	resp.Duration = time.Since(startTime)

	if finalCfg.afterResponse != nil {
		if err := finalCfg.afterResponse(resp); err != nil {
			return resp, err
		}
	}

	return resp, nil
}

// doRequest 执行单次 HTTP 请求
func (c *Client) doRequest(ctx context.Context, req *Request, cfg *config) (*Response, error) {
	httpReq, err := req.buildHTTPRequest()
	if err != nil {
		return nil, fmt.Errorf("build http request failed: %w", err)
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	httpReq = httpReq.WithContext(ctx)

	if cfg.beforeRequest != nil {
		if err := cfg.beforeRequest(httpReq); err != nil {
			return nil, fmt.Errorf("before request hook failed: %w", err)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	resp, err := newResponse(httpResp)
	if err != nil {
		return nil, fmt.Errorf("build response failed: %w", err)
	}

	return resp, nil
}

// Get 执行 GET 请求
func (c *Client) Get(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Do(ctx, NewGetRequest(url), opts...)
}

// Post 执行 POST 请求
func (c *Client) Post(ctx context.Context, url string, opts ...Option) (*Response, error) {
	req := NewPostRequest(url)

	reqCfg := newConfig()
	applyOptions(reqCfg, opts)
	if reqCfg.body != nil {
		req.WithBody(reqCfg.body)
	}

	return c.Do(ctx, req, opts...)
}

// Put 执行 PUT 请求
func (c *Client) Put(ctx context.Context, url string, opts ...Option) (*Response, error) {
	req := NewPutRequest(url)

	reqCfg := newConfig()
	applyOptions(reqCfg, opts)
	if reqCfg.body != nil {
		req.WithBody(reqCfg.body)
	}

	return c.Do(ctx, req, opts...)
}

// Delete 执行 DELETE 请求
func (c *Client) Delete(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Do(ctx, NewDeleteRequest(url), opts...)
}

// DoWithData 执行请求并自动反序列化（泛型）
func DoWithData[T any](client *Client, ctx context.Context, req *Request, opts ...Option) (*T, error) {
	resp, err := client.Do(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var result T
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	return &result, nil
}

// Get 泛型版本
func Get[T any](client *Client, ctx context.Context, url string, opts ...Option) (*T, error) {
	return DoWithData[T](client, ctx, NewGetRequest(url), opts...)
}

// Post 泛型版本
func Post[T any](client *Client, ctx context.Context, url string, data interface{}, opts ...Option) (*T, error) {
	req := NewPostRequest(url)

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal request data failed: %w", err)
		}
		req.WithBody(bytes.NewReader(jsonData))
		req.WithHeader("Content-Type", "application/json")
	}

	return DoWithData[T](client, ctx, req, opts...)
}
