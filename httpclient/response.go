package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Response HTTP 响应封装
type Response struct {
	StatusCode  int
	Status      string
	Headers     http.Header
	Body        []byte
	RawResponse *http.Response

	// Duration 请求总耗时
	Duration time.Duration
}

// IsSuccess 判断响应是否成功（2xx）
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsClientError 判断是否客户端错误（4xx）
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError 判断是否服务端错误（5xx）
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// JSON 反序列化 JSON 响应
func (r *Response) JSON(v interface{}) error {
	if v == nil {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// String 返回响应 Body 字符串
func (r *Response) String() string {
	return string(r.Body)
}

// Bytes 返回响应 Body 字节数组
func (r *Response) Bytes() []byte {
	return r.Body
}

// Close 关闭底层响应
func (r *Response) Close() error {
	if r.RawResponse != nil && r.RawResponse.Body != nil {
		return r.RawResponse.Body.Close()
	}
	return nil
}

// newResponse 从 http.Response 创建 Response（读取并缓存 Body）
func newResponse(httpResp *http.Response) (*Response, error) {
	if httpResp == nil {
		return nil, nil
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		Status:      httpResp.Status,
		Headers:     httpResp.Header,
		Body:        body,
		RawResponse: httpResp,
	}, nil
}
