package httpclient

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-callguard/guard"
)

// GuardExecutor 调用防护接口（用于解耦，*guard.Manager 天然实现）
type GuardExecutor interface {
	// Execute 执行受保护的调用
	Execute(ctx context.Context, req *guard.Request) (*guard.Response, error)

	// IsEnabled 检查防护是否启用
	IsEnabled() bool

	// GetState 获取资源的当前状态
	GetState(resource string) guard.State
}

// WithGuard 设置调用防护管理器
func WithGuard(manager GuardExecutor) Option {
	return func(c *config) {
		c.guardManager = manager
	}
}

// WithGuardResource 设置防护资源名称（默认使用 URL）
func WithGuardResource(resource string) Option {
	return func(c *config) {
		c.guardResource = resource
	}
}

// WithGuardFallback 设置熔断降级逻辑
func WithGuardFallback(fallback func(ctx context.Context, err error) (*Response, error)) Option {
	return func(c *config) {
		c.guardFallback = fallback
	}
}

// DisableGuard 禁用调用防护（单次请求级别）
func DisableGuard() Option {
	return func(c *config) {
		c.guardDisabled = true
	}
}

// executeWithGuard 执行带熔断保护的 HTTP 请求
func (c *Client) executeWithGuard(ctx context.Context, req *Request, cfg *config) (*Response, error) {
	if cfg.guardDisabled || cfg.guardManager == nil || !cfg.guardManager.IsEnabled() {
		return c.doRequest(ctx, req, cfg)
	}

	// Do 已完成 baseURL 拼接，此处 req.URL 是完整地址
	resource := cfg.guardResource
	if resource == "" {
		resource = req.URL
	}

	guardReq := &guard.Request{
		Resource: resource,
		Execute: func(ctx context.Context) (interface{}, error) {
			resp, err := c.doRequest(ctx, req, cfg)
			if err != nil {
				return nil, err
			}

			// 5xx 计入失败，触发熔断统计
			if resp.IsServerError() {
				return resp, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			}

			return resp, nil
		},
	}

	if cfg.guardFallback != nil {
		guardReq.Fallback = func(ctx context.Context, err error) (interface{}, error) {
			return cfg.guardFallback(ctx, err)
		}
	}

	result, err := cfg.guardManager.Execute(ctx, guardReq)
	if err != nil {
		return nil, err
	}

	resp, ok := result.Value.(*Response)
	if !ok {
		return nil, fmt.Errorf("unexpected response type from guard")
	}

	return resp, nil
}
