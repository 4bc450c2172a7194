package types

import (
	"errors"
	"fmt"
)

// ErrNoEndpointAvailable 所有候选端点均探测失败，整个扫描直接中止
var ErrNoEndpointAvailable = errors.New("无可用端点，请检查网络连接")

// APIError 交易所接口返回的业务错误（HTTP非200或code非成功）
// 只有交易对列表接口的APIError会中止扫描，其余调用降级处理
type APIError struct {
	Endpoint string // 请求地址
	Code     string // 交易所业务码，传输层错误时为空
	Msg      string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("接口返回错误: %s code=%s msg=%s", e.Endpoint, e.Code, e.Msg)
	}
	return fmt.Sprintf("接口请求失败: %s %s", e.Endpoint, e.Msg)
}

// ValidationError 扫描参数校验失败，在任何网络请求之前返回
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Reason)
}
