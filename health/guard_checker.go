package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/KOMKZ/go-callguard/guard"
)

// GuardChecker 基于熔断器状态的健康检查器
//
// 有资源处于 OPEN 状态时报告 degraded（服务仍可用，部分下游被熔断），
// 全部资源 CLOSED 或 HALF_OPEN 时报告健康。
type GuardChecker struct {
	manager *guard.Manager
}

// NewGuardChecker 创建熔断器健康检查器
func NewGuardChecker(manager *guard.Manager) *GuardChecker {
	return &GuardChecker{manager: manager}
}

var _ Checker = (*GuardChecker)(nil)

// Name 检查项名称
func (c *GuardChecker) Name() string {
	return "callguard"
}

// Check 执行检查
func (c *GuardChecker) Check(ctx context.Context) error {
	if c.manager == nil || !c.manager.IsEnabled() {
		return nil
	}

	var open []string
	for resource, state := range c.manager.States() {
		if state == guard.StateOpen {
			open = append(open, resource)
		}
	}

	if len(open) == 0 {
		return nil
	}

	sort.Strings(open)
	return &DegradedError{
		Reason: fmt.Sprintf("熔断器打开: %s", strings.Join(open, ", ")),
	}
}
