package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRequest 测试构造方法
func TestNewRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    *Request
		method string
	}{
		{"GET", NewGetRequest("http://example.com"), http.MethodGet},
		{"POST", NewPostRequest("http://example.com"), http.MethodPost},
		{"PUT", NewPutRequest("http://example.com"), http.MethodPut},
		{"DELETE", NewDeleteRequest("http://example.com"), http.MethodDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.method, tt.req.Method)
			assert.Equal(t, "http://example.com", tt.req.URL)
			assert.NotNil(t, tt.req.Headers)
			assert.NotNil(t, tt.req.Query)
		})
	}
}

// TestRequest_WithJSON 测试 JSON Body 设置
func TestRequest_WithJSON(t *testing.T) {
	req := NewPostRequest("http://example.com").WithJSON(map[string]string{"name": "alice"})

	assert.Equal(t, "application/json", req.Headers["Content-Type"])
	assert.JSONEq(t, `{"name":"alice"}`, string(req.bodyBytes))
}

// TestRequest_WithForm 测试表单 Body 设置
func TestRequest_WithForm(t *testing.T) {
	req := NewPostRequest("http://example.com").WithForm(map[string]string{
		"user": "alice",
		"role": "admin",
	})

	assert.Equal(t, "application/x-www-form-urlencoded", req.Headers["Content-Type"])
	body := string(req.bodyBytes)
	assert.Contains(t, body, "user=alice")
	assert.Contains(t, body, "role=admin")
}

// TestRequest_WithBody 测试原始 Body 缓存
func TestRequest_WithBody(t *testing.T) {
	req := NewPostRequest("http://example.com").WithBody(strings.NewReader("raw payload"))
	assert.Equal(t, "raw payload", string(req.bodyBytes))

	// 缓存后可多次重建
	for i := 0; i < 2; i++ {
		httpReq, err := req.buildHTTPRequest()
		require.NoError(t, err)
		data, err := io.ReadAll(httpReq.Body)
		require.NoError(t, err)
		assert.Equal(t, "raw payload", string(data))
	}
}

// TestRequest_BuildHTTPRequest 测试 http.Request 构建
func TestRequest_BuildHTTPRequest(t *testing.T) {
	t.Run("拼接 Query 参数", func(t *testing.T) {
		req := NewGetRequest("http://example.com/api").
			WithQuery("page", "1").
			WithHeader("X-Token", "abc")

		httpReq, err := req.buildHTTPRequest()
		require.NoError(t, err)
		assert.Equal(t, "http://example.com/api?page=1", httpReq.URL.String())
		assert.Equal(t, "abc", httpReq.Header.Get("X-Token"))
	})

	t.Run("URL 已有参数时追加", func(t *testing.T) {
		req := NewGetRequest("http://example.com/api?a=1").WithQuery("b", "2")

		httpReq, err := req.buildHTTPRequest()
		require.NoError(t, err)
		assert.Equal(t, "1", httpReq.URL.Query().Get("a"))
		assert.Equal(t, "2", httpReq.URL.Query().Get("b"))
	})

	t.Run("非法 URL 返回错误", func(t *testing.T) {
		req := NewGetRequest("://bad-url")
		_, err := req.buildHTTPRequest()
		assert.Error(t, err)
	})
}

// TestRequest_Clone 测试克隆独立性
func TestRequest_Clone(t *testing.T) {
	original := NewPostRequest("http://example.com").
		WithHeader("X-Token", "abc").
		WithQuery("page", "1").
		WithJSON(map[string]string{"k": "v"})

	clone := original.Clone()

	assert.Equal(t, original.Method, clone.Method)
	assert.Equal(t, original.URL, clone.URL)
	assert.Equal(t, original.Headers, clone.Headers)
	assert.Equal(t, original.bodyBytes, clone.bodyBytes)

	// 修改克隆不影响原始请求
	clone.WithHeader("X-Token", "changed")
	clone.WithQuery("page", "2")
	assert.Equal(t, "abc", original.Headers["X-Token"])
	assert.Equal(t, "1", original.Query.Get("page"))
}
