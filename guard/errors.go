package guard

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen 熔断器处于 Open 状态，请求被拒绝
	ErrCircuitOpen = errors.New("callguard: circuit is open")

	// ErrTrialInFlight 半开状态下已有试探调用在执行中，请求被拒绝。
	// 包装 ErrCircuitOpen，调用方统一用 errors.Is(err, ErrCircuitOpen) 识别拒绝。
	ErrTrialInFlight = fmt.Errorf("callguard: trial call already in flight: %w", ErrCircuitOpen)
)

// IsRejection 判断错误是否为熔断拒绝（未执行实际调用）
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// GuardedCallError 受保护调用失败且无降级时返回的错误（包装原始错误）
//
// 调用方可以通过 errors.Is/errors.As 访问原始错误，
// 通过 Timeout 字段区分超时和普通失败。
type GuardedCallError struct {
	// Resource 资源标识
	Resource string

	// Timeout 是否因超时失败
	Timeout bool

	// Cause 原始错误
	Cause error
}

func (e *GuardedCallError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("callguard: call to %q timed out: %v", e.Resource, e.Cause)
	}
	return fmt.Sprintf("callguard: call to %q failed: %v", e.Resource, e.Cause)
}

func (e *GuardedCallError) Unwrap() error {
	return e.Cause
}

// IsGuardedCallError 判断错误是否为受保护调用失败
func IsGuardedCallError(err error) bool {
	var gce *GuardedCallError
	return errors.As(err, &gce)
}

// PanicError 受保护调用发生 panic 时的错误
type PanicError struct {
	// Recovered panic 的恢复值
	Recovered interface{}

	// Stack 捕获的调用栈
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("callguard: panic in guarded call: %v", e.Recovered)
}
