package httpclient

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewConfig 测试默认配置
func TestNewConfig(t *testing.T) {
	cfg := newConfig()
	assert.Equal(t, 30*time.Second, cfg.timeout)
	assert.NotNil(t, cfg.headers)
	assert.NotNil(t, cfg.queries)
	assert.Nil(t, cfg.guardManager)
}

// TestApplyOptions 测试选项应用
func TestApplyOptions(t *testing.T) {
	cfg := newConfig()
	applyOptions(cfg, []Option{
		WithBaseURL("http://api.example.com"),
		WithTimeout(10 * time.Second),
		WithHeader("X-Token", "abc"),
		WithQuery("page", "1"),
		nil, // nil 选项被跳过
	})

	assert.Equal(t, "http://api.example.com", cfg.baseURL)
	assert.Equal(t, 10*time.Second, cfg.timeout)
	assert.Equal(t, "abc", cfg.headers["X-Token"])
	assert.Equal(t, "1", cfg.queries.Get("page"))
}

// TestConfig_Merge 测试 Client 级与 Request 级配置合并
func TestConfig_Merge(t *testing.T) {
	t.Run("Request 级覆盖 Client 级", func(t *testing.T) {
		clientCfg := newConfig()
		applyOptions(clientCfg, []Option{
			WithBaseURL("http://client.example.com"),
			WithTimeout(30 * time.Second),
			WithHeader("X-Token", "client"),
		})

		reqCfg := newConfig()
		applyOptions(reqCfg, []Option{
			WithBaseURL("http://request.example.com"),
			WithTimeout(5 * time.Second),
			WithHeader("X-Token", "request"),
		})

		merged := clientCfg.merge(reqCfg)
		assert.Equal(t, "http://request.example.com", merged.baseURL)
		assert.Equal(t, 5*time.Second, merged.timeout)
		assert.Equal(t, "request", merged.headers["X-Token"])
	})

	t.Run("Request 级未设置时保留 Client 级", func(t *testing.T) {
		clientCfg := newConfig()
		applyOptions(clientCfg, []Option{
			WithBaseURL("http://client.example.com"),
			WithHeader("Authorization", "token"),
			WithGuardResource("upstream"),
		})

		merged := clientCfg.merge(newConfig())
		assert.Equal(t, "http://client.example.com", merged.baseURL)
		assert.Equal(t, "token", merged.headers["Authorization"])
		assert.Equal(t, "upstream", merged.guardResource)
	})

	t.Run("Query 参数累加", func(t *testing.T) {
		clientCfg := newConfig()
		applyOptions(clientCfg, []Option{WithQuery("limit", "10")})

		reqCfg := newConfig()
		applyOptions(reqCfg, []Option{WithQueries(url.Values{"page": {"2"}})})

		merged := clientCfg.merge(reqCfg)
		assert.Equal(t, "10", merged.queries.Get("limit"))
		assert.Equal(t, "2", merged.queries.Get("page"))
	})

	t.Run("防护禁用单向传递", func(t *testing.T) {
		clientCfg := newConfig()
		reqCfg := newConfig()
		applyOptions(reqCfg, []Option{DisableGuard()})

		merged := clientCfg.merge(reqCfg)
		assert.True(t, merged.guardDisabled)
	})

	t.Run("Context 覆盖", func(t *testing.T) {
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "v")

		clientCfg := newConfig()
		reqCfg := newConfig()
		applyOptions(reqCfg, []Option{WithContext(ctx)})

		merged := clientCfg.merge(reqCfg)
		assert.Equal(t, "v", merged.ctx.Value(ctxKey{}))
	})
}

// TestWithInsecureSkipVerify 测试跳过 TLS 验证
func TestWithInsecureSkipVerify(t *testing.T) {
	cfg := newConfig()
	applyOptions(cfg, []Option{WithInsecureSkipVerify()})

	assert.NotNil(t, cfg.transport)
	assert.True(t, cfg.transport.TLSClientConfig.InsecureSkipVerify)
}
