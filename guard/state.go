package guard

import (
	"sync"
	"time"
)

// stateMachine 状态机
//
// 持有单个资源的权威状态：所有并发调用方观察和变更同一份状态。
// openedAt 仅在 Open 状态有效；halfOpenInFlight 仅在 HalfOpen 状态有效，
// 同一时刻最多一个试探调用持有它。
type stateMachine struct {
	clock            Clock
	state            State
	openedAt         time.Time
	lastTransition   time.Time
	halfOpenInFlight bool
	mu               sync.RWMutex
}

// newStateMachine 创建状态机（初始 Closed）
func newStateMachine(clock Clock) *stateMachine {
	return &stateMachine{
		clock:          clock,
		state:          StateClosed,
		lastTransition: clock.Now(),
	}
}

// GetState 获取当前状态（线程安全）
func (sm *stateMachine) GetState() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// Admit 判断是否放行本次调用
//
// 返回值：
//   - admitted: 是否放行
//   - trial: 本次调用是否为半开状态的试探调用（持有 halfOpenInFlight）
//   - changed/from/to: 准入判断中是否发生了状态切换（Open 超时转 HalfOpen）
func (sm *stateMachine) Admit(config ResourceConfig) (admitted, trial bool, changed bool, from, to State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch sm.state {
	case StateClosed:
		// 正常状态，放行所有请求
		return true, false, false, sm.state, sm.state

	case StateOpen:
		// 熔断期已过，转入半开并把本次调用作为试探
		if sm.clock.Now().Sub(sm.openedAt) >= config.OpenDuration {
			from = sm.state
			sm.transitionToLocked(StateHalfOpen)
			sm.halfOpenInFlight = true
			return true, true, true, from, sm.state
		}
		// 熔断期内，快速失败
		return false, false, false, sm.state, sm.state

	case StateHalfOpen:
		// 半开状态，test-and-set：仅第一个调用方拿到试探资格
		if !sm.halfOpenInFlight {
			sm.halfOpenInFlight = true
			return true, true, false, sm.state, sm.state
		}
		return false, false, false, sm.state, sm.state

	default:
		return false, false, false, sm.state, sm.state
	}
}

// OnTrialSuccess 试探调用成功：恢复 Closed
func (sm *stateMachine) OnTrialSuccess() (changed bool, from, to State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.halfOpenInFlight = false

	if sm.state == StateHalfOpen {
		from = sm.state
		sm.transitionToLocked(StateClosed)
		return true, from, sm.state
	}

	return false, sm.state, sm.state
}

// OnTrialFailure 试探调用失败/超时：重新熔断，重置 openedAt
func (sm *stateMachine) OnTrialFailure() (changed bool, from, to State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.halfOpenInFlight = false

	if sm.state == StateHalfOpen {
		from = sm.state
		sm.transitionToLocked(StateOpen)
		return true, from, sm.state
	}

	return false, sm.state, sm.state
}

// TripOpen 阈值越线触发熔断（仅 Closed 状态有效）
func (sm *stateMachine) TripOpen() (changed bool, from, to State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.state == StateClosed {
		from = sm.state
		sm.transitionToLocked(StateOpen)
		return true, from, sm.state
	}

	return false, sm.state, sm.state
}

// Reset 手动重置为 Closed
func (sm *stateMachine) Reset() (changed bool, from, to State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.halfOpenInFlight = false

	if sm.state != StateClosed {
		from = sm.state
		sm.transitionToLocked(StateClosed)
		return true, from, sm.state
	}

	return false, sm.state, sm.state
}

// LastTransition 获取最近一次状态切换时间
func (sm *stateMachine) LastTransition() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastTransition
}

// transitionToLocked 切换状态（内部方法，需持有写锁）
func (sm *stateMachine) transitionToLocked(newState State) {
	sm.state = newState
	sm.lastTransition = sm.clock.Now()
	if newState == StateOpen {
		sm.openedAt = sm.lastTransition
	}
}
