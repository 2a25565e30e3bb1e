package guard

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// windowMetrics 滑动窗口指标采集器
//
// 底层数据由 outcomeWindow 维护，本类型负责聚合出快照并通知观察者。
type windowMetrics struct {
	resource string
	window   *outcomeWindow
	stateMgr *stateMachine

	observers  map[ObserverID]MetricsObserver
	observerMu sync.RWMutex
}

// newWindowMetrics 创建滑动窗口指标采集器
func newWindowMetrics(resource string, config ResourceConfig, stateMgr *stateMachine, clock Clock) *windowMetrics {
	return &windowMetrics{
		resource:  resource,
		window:    newOutcomeWindow(config, clock),
		stateMgr:  stateMgr,
		observers: make(map[ObserverID]MetricsObserver),
	}
}

// RecordSuccess 记录成功
func (m *windowMetrics) RecordSuccess(duration time.Duration) {
	m.window.record(OutcomeSuccess, duration, nil)
	m.notifyObservers()
}

// RecordFailure 记录失败
func (m *windowMetrics) RecordFailure(duration time.Duration, err error) {
	m.window.record(OutcomeFailure, duration, err)
	m.notifyObservers()
}

// RecordTimeout 记录超时
func (m *windowMetrics) RecordTimeout(duration time.Duration) {
	m.window.record(OutcomeTimeout, duration, nil)
	m.notifyObservers()
}

// RecordRejection 记录拒绝
func (m *windowMetrics) RecordRejection() {
	m.window.record(OutcomeRejected, 0, nil)
	m.notifyObservers()
}

// GetSnapshot 获取当前快照
func (m *windowMetrics) GetSnapshot() *MetricsSnapshot {
	ws := m.window.snapshot()

	snap := &MetricsSnapshot{
		Resource:         m.resource,
		State:            m.stateMgr.GetState(),
		LastTransitionAt: m.stateMgr.LastTransition(),
		WindowStart:      ws.windowStart,
		WindowEnd:        ws.windowEnd,
		TotalCalls:       ws.totalCalls,
		Successes:        ws.successes,
		Failures:         ws.failures,
		Timeouts:         ws.timeouts,
		Rejections:       ws.rejections,
		FailureRate:      ws.failureRate,
		ErrorTypes:       ws.errorTypes,
	}

	if ws.totalCalls > 0 {
		snap.SuccessRate = float64(ws.successes) / float64(ws.totalCalls)
	}

	// 延迟统计
	latencies := ws.latencies
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		var total time.Duration
		for _, lat := range latencies {
			total += lat
		}
		snap.AvgLatency = total / time.Duration(len(latencies))
		snap.P50Latency = latencies[len(latencies)*50/100]
		snap.P95Latency = latencies[len(latencies)*95/100]
		snap.P99Latency = latencies[len(latencies)*99/100]
		snap.MaxLatency = latencies[len(latencies)-1]
	}

	return snap
}

// windowCounts 返回底层窗口计数聚合
//
// 阈值评估专用，不复制延迟样本和错误分布。
func (m *windowMetrics) windowCounts() windowCounts {
	return m.window.counts()
}

// resetWindow 清空窗口（状态切换时调用）
func (m *windowMetrics) resetWindow() {
	m.window.reset()
}

// Subscribe 订阅实时指标
func (m *windowMetrics) Subscribe(observer MetricsObserver) ObserverID {
	m.observerMu.Lock()
	defer m.observerMu.Unlock()

	id := ObserverID(uuid.NewString())
	m.observers[id] = observer
	return id
}

// Unsubscribe 取消订阅
func (m *windowMetrics) Unsubscribe(id ObserverID) {
	m.observerMu.Lock()
	defer m.observerMu.Unlock()

	delete(m.observers, id)
}

// Reset 重置指标
func (m *windowMetrics) Reset() {
	m.window.reset()
}

// notifyObservers 通知所有观察者
func (m *windowMetrics) notifyObservers() {
	m.observerMu.RLock()
	observers := make([]MetricsObserver, 0, len(m.observers))
	for _, obs := range m.observers {
		observers = append(observers, obs)
	}
	m.observerMu.RUnlock()

	if len(observers) == 0 {
		return
	}

	snapshot := m.GetSnapshot()
	for _, obs := range observers {
		go obs.OnMetricsUpdated(snapshot)
	}
}
