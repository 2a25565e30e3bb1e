package guard

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/KOMKZ/go-callguard/logger"
	"go.uber.org/zap"
)

// callGuard 单个资源的调用防护实现
type callGuard struct {
	resource string
	config   ResourceConfig
	stateMgr *stateMachine
	metrics  *windowMetrics
	eventBus EventBus
	logger   *logger.CtxZapLogger
	clock    Clock
}

// newCallGuard 创建调用防护实例
func newCallGuard(resource string, config ResourceConfig, eventBus EventBus, log *logger.CtxZapLogger, clock Clock) *callGuard {
	stateMgr := newStateMachine(clock)
	metrics := newWindowMetrics(resource, config, stateMgr, clock)

	return &callGuard{
		resource: resource,
		config:   config,
		stateMgr: stateMgr,
		metrics:  metrics,
		eventBus: eventBus,
		logger:   log,
		clock:    clock,
	}
}

// Execute 执行受保护的调用
func (cb *callGuard) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 准入判断（Open 超时会在这里切换到 HalfOpen）
	admitted, trial, changed, fromState, toState := cb.stateMgr.Admit(cb.config)
	if changed {
		cb.metrics.resetWindow()
		cb.publishStateChangedEvent(ctx, fromState, toState, "open duration elapsed")
	}

	if !admitted {
		return cb.reject(ctx, req)
	}

	if cb.logger != nil {
		cb.logger.DebugCtx(ctx, "✅ [CallGuard] Execution allowed",
			zap.String("resource", cb.resource),
			zap.Bool("trial", trial))
	}

	// 确定本次调用的超时预算
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = cb.config.CallTimeout
	}
	if trial {
		// 试探调用的成本有上界：超过 HalfOpenTimeout 按失败处理
		timeout = cb.config.HalfOpenTimeout
	}

	// 执行实际操作
	start := cb.clock.Now()
	value, err, timedOut := cb.runBounded(ctx, req.Execute, timeout)
	duration := cb.clock.Now().Sub(start)

	if err != nil {
		cb.handleFailure(ctx, trial, timedOut, duration, err)

		gce := &GuardedCallError{Resource: cb.resource, Timeout: timedOut, Cause: err}
		if req.Fallback != nil {
			return cb.executeFallback(ctx, req, gce)
		}
		return nil, gce
	}

	cb.handleSuccess(ctx, trial, duration)
	return &Response{Value: value, Duration: duration}, nil
}

// reject 处理被拒绝的调用：仅记录观测数据，不触碰失败率
func (cb *callGuard) reject(ctx context.Context, req *Request) (*Response, error) {
	currentState := cb.stateMgr.GetState()

	if cb.logger != nil {
		cb.logger.WarnCtx(ctx, "⛔ [CallGuard] Request rejected",
			zap.String("resource", cb.resource),
			zap.String("state", currentState.String()))
	}

	cb.metrics.RecordRejection()

	if cb.eventBus != nil {
		cb.eventBus.Publish(&RejectedEvent{
			BaseEvent:    NewBaseEvent(EventCallRejected, cb.resource, ctx),
			CurrentState: currentState,
		})
	}

	rejErr := ErrCircuitOpen
	if currentState.IsHalfOpen() {
		rejErr = ErrTrialInFlight
	}

	if req.Fallback != nil {
		return cb.executeFallback(ctx, req, rejErr)
	}

	return nil, rejErr
}

// runBounded 在超时预算内执行操作
//
// 操作在独立协程中执行，不依赖其自身对 ctx 的响应：
// 超时后本方法立即返回，迟到的结果被丢弃（不会产生第二次结果记录）。
// panic 被捕获并转换为 *PanicError。
func (cb *callGuard) runBounded(ctx context.Context, fn func(context.Context) (interface{}, error), timeout time.Duration) (interface{}, error, bool) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type callResult struct {
		value interface{}
		err   error
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{nil, &PanicError{Recovered: r, Stack: debug.Stack()}}
			}
		}()
		value, err := fn(callCtx)
		done <- callResult{value, err}
	}()

	select {
	case res := <-done:
		timedOut := res.err != nil &&
			(errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled))
		return res.value, res.err, timedOut

	case <-callCtx.Done():
		// 超时或调用方取消：结果永远不会是成功
		return nil, callCtx.Err(), true
	}
}

// handleSuccess 处理成功结果
func (cb *callGuard) handleSuccess(ctx context.Context, trial bool, duration time.Duration) {
	cb.metrics.RecordSuccess(duration)

	if cb.eventBus != nil {
		cb.eventBus.Publish(&CallEvent{
			BaseEvent: NewBaseEvent(EventCallSuccess, cb.resource, ctx),
			Success:   true,
			Trial:     trial,
			Duration:  duration,
		})
	}

	if trial {
		// 试探成功：恢复 Closed，清空窗口
		changed, fromState, toState := cb.stateMgr.OnTrialSuccess()
		if changed {
			cb.metrics.resetWindow()
			cb.publishStateChangedEvent(ctx, fromState, toState, "trial call succeeded")
		}
		return
	}

	cb.evaluateThreshold(ctx)
}

// handleFailure 处理失败/超时结果
func (cb *callGuard) handleFailure(ctx context.Context, trial, timedOut bool, duration time.Duration, err error) {
	if cb.logger != nil {
		cb.logger.DebugCtx(ctx, "❌ [CallGuard] Call failed",
			zap.String("resource", cb.resource),
			zap.Bool("trial", trial),
			zap.Bool("timeout", timedOut),
			zap.Duration("duration", duration),
			zap.Error(err))
	}

	if timedOut {
		cb.metrics.RecordTimeout(duration)
	} else {
		cb.metrics.RecordFailure(duration, err)
	}

	if cb.eventBus != nil {
		eventType := EventCallFailure
		if timedOut {
			eventType = EventCallTimeout
		}
		cb.eventBus.Publish(&CallEvent{
			BaseEvent: NewBaseEvent(eventType, cb.resource, ctx),
			Success:   false,
			Trial:     trial,
			Duration:  duration,
			Error:     err,
		})
	}

	if trial {
		// 试探失败：重新熔断，重置 openedAt
		changed, fromState, toState := cb.stateMgr.OnTrialFailure()
		if changed {
			cb.metrics.resetWindow()
			cb.publishStateChangedEvent(ctx, fromState, toState, "trial call failed")
		}
		return
	}

	cb.evaluateThreshold(ctx)
}

// evaluateThreshold 每次记录结果后评估是否触发熔断（仅 Closed 状态）
func (cb *callGuard) evaluateThreshold(ctx context.Context) {
	if !cb.stateMgr.GetState().IsClosed() {
		return
	}

	counts := cb.metrics.windowCounts()
	if counts.totalCalls < int64(cb.config.MinVolume) {
		// 样本不足，不评估失败率
		return
	}
	if counts.failureRate < cb.config.FailureRateThreshold {
		return
	}

	if cb.logger != nil {
		cb.logger.WarnCtx(ctx, "⛔ [CallGuard] Failure rate threshold exceeded, tripping circuit",
			zap.String("resource", cb.resource),
			zap.Int64("totalCalls", counts.totalCalls),
			zap.Int64("failedCalls", counts.failedCalls()),
			zap.Float64("failureRate", counts.failureRate))
	}

	changed, fromState, toState := cb.stateMgr.TripOpen()
	if changed {
		cb.metrics.resetWindow()
		cb.publishStateChangedEvent(ctx, fromState, toState, "failure rate threshold exceeded")
	}
}

// executeFallback 执行降级逻辑
//
// 降级在调用方的 ctx 下同步执行，不设单独超时；
// 降级自身的错误原样返回，防护器不做二次包装。
func (cb *callGuard) executeFallback(ctx context.Context, req *Request, originalErr error) (*Response, error) {
	start := cb.clock.Now()
	value, err := req.Fallback(ctx, originalErr)
	duration := cb.clock.Now().Sub(start)

	if cb.eventBus != nil {
		eventType := EventFallbackSuccess
		if err != nil {
			eventType = EventFallbackFailure
		}

		cb.eventBus.Publish(&FallbackEvent{
			BaseEvent: NewBaseEvent(eventType, cb.resource, ctx),
			Success:   err == nil,
			Duration:  duration,
			Error:     err,
		})
	}

	if err != nil {
		return nil, err
	}

	return &Response{Value: value, FromFallback: true, Duration: duration}, nil
}

// publishStateChangedEvent 发布状态切换事件
func (cb *callGuard) publishStateChangedEvent(ctx context.Context, fromState, toState State, reason string) {
	if cb.logger != nil {
		cb.logger.InfoCtx(ctx, "🔄 [CallGuard] State changed",
			zap.String("resource", cb.resource),
			zap.String("from", fromState.String()),
			zap.String("to", toState.String()),
			zap.String("reason", reason))
	}

	if cb.eventBus != nil {
		cb.eventBus.Publish(&StateChangedEvent{
			BaseEvent: NewBaseEvent(EventStateChanged, cb.resource, ctx),
			FromState: fromState,
			ToState:   toState,
			Reason:    reason,
			Metrics:   cb.metrics.GetSnapshot(),
		})
	}
}

// GetState 获取防护状态
func (cb *callGuard) GetState() State {
	return cb.stateMgr.GetState()
}

// GetMetrics 获取指标快照
func (cb *callGuard) GetMetrics() *MetricsSnapshot {
	return cb.metrics.GetSnapshot()
}

// Reset 重置状态和指标
func (cb *callGuard) Reset() {
	changed, fromState, toState := cb.stateMgr.Reset()
	cb.metrics.Reset()
	if changed {
		cb.publishStateChangedEvent(context.Background(), fromState, toState, "manual reset")
	}
}

// Manager 调用防护管理器（注册表）
//
// 按资源名独占持有防护实例：每个被保护的依赖对应一个独立的状态机和窗口，
// 跨资源之间没有共享状态。Manager 需要显式传递给调用点，没有包级单例。
type Manager struct {
	config   Config
	guards   map[string]*callGuard
	eventBus EventBus
	logger   *logger.CtxZapLogger
	clock    Clock
	mu       sync.RWMutex
}

var _ Guard = (*Manager)(nil)

// NewManager 创建调用防护管理器
func NewManager(config Config) (*Manager, error) {
	return NewManagerWithLogger(config, nil)
}

// NewManagerWithLogger 创建带 logger 的调用防护管理器
func NewManagerWithLogger(config Config, ctxLogger *logger.CtxZapLogger) (*Manager, error) {
	return NewManagerWithClock(config, ctxLogger, defaultClock())
}

// NewManagerWithClock 创建带注入时钟的调用防护管理器（测试用）
func NewManagerWithClock(config Config, ctxLogger *logger.CtxZapLogger, clock Clock) (*Manager, error) {
	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if clock == nil {
		clock = defaultClock()
	}

	// 未启用时返回空管理器（直接透传）
	if !config.Enabled {
		return &Manager{
			config: config,
			guards: make(map[string]*callGuard),
			logger: ctxLogger,
			clock:  clock,
		}, nil
	}

	eventBus := NewEventBus(config.EventBusBuffer)

	if ctxLogger != nil {
		ctxLogger.DebugCtx(context.Background(), "🎯 CallGuard manager initialized",
			zap.Int("event_bus_buffer", config.EventBusBuffer))
	}

	return &Manager{
		config:   config,
		guards:   make(map[string]*callGuard),
		eventBus: eventBus,
		logger:   ctxLogger,
		clock:    clock,
	}, nil
}

// Execute 执行受保护的调用
func (m *Manager) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 未启用时直接执行
	if !m.config.Enabled {
		value, err := req.Execute(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{Value: value}, nil
	}

	g := m.getOrCreateGuard(req.Resource)
	return g.Execute(ctx, req)
}

// GetState 获取资源的当前状态
func (m *Manager) GetState(resource string) State {
	g := m.getOrCreateGuard(resource)
	return g.GetState()
}

// GetMetrics 获取资源的指标快照
func (m *Manager) GetMetrics(resource string) *MetricsSnapshot {
	g := m.getOrCreateGuard(resource)
	return g.GetMetrics()
}

// GetEventBus 获取事件总线
func (m *Manager) GetEventBus() EventBus {
	return m.eventBus
}

// SubscribeMetrics 订阅资源的实时指标
func (m *Manager) SubscribeMetrics(resource string, observer MetricsObserver) ObserverID {
	g := m.getOrCreateGuard(resource)
	return g.metrics.Subscribe(observer)
}

// States 获取所有已创建资源的当前状态
func (m *Manager) States() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]State, len(m.guards))
	for resource, g := range m.guards {
		states[resource] = g.GetState()
	}
	return states
}

// Reset 手动重置指定资源
func (m *Manager) Reset(resource string) {
	m.mu.RLock()
	g, exists := m.guards[resource]
	m.mu.RUnlock()

	if exists {
		g.Reset()
	}
}

// IsEnabled 检查防护是否启用
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// Close 关闭管理器
func (m *Manager) Close() error {
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	return nil
}

// getOrCreateGuard 获取或创建防护实例（线程安全）
func (m *Manager) getOrCreateGuard(resource string) *callGuard {
	// 先尝试读锁（快速路径）
	m.mu.RLock()
	if g, exists := m.guards[resource]; exists {
		m.mu.RUnlock()
		return g
	}
	m.mu.RUnlock()

	// 需要创建，获取写锁
	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查
	if g, exists := m.guards[resource]; exists {
		return g
	}

	resourceConfig := m.config.GetResourceConfig(resource)
	g := newCallGuard(resource, resourceConfig, m.eventBus, m.logger, m.clock)
	m.guards[resource] = g

	if m.logger != nil {
		m.logger.DebugCtx(context.Background(), "🎯 Creating call guard instance",
			zap.String("resource", resource),
			zap.Duration("open_duration", resourceConfig.OpenDuration),
			zap.Duration("call_timeout", resourceConfig.CallTimeout))
	}

	return g
}
