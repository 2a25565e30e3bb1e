package guard

import (
	"sync"
	"time"
)

// OutcomeKind 单次调用结果类型
type OutcomeKind int

const (
	// OutcomeSuccess 调用成功
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailure 调用失败
	OutcomeFailure

	// OutcomeTimeout 调用超时（计入失败率）
	OutcomeTimeout

	// OutcomeRejected 调用被熔断拒绝（仅用于观测，不计入失败率）
	OutcomeRejected
)

// String 返回结果类型名称
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// bucket 时间桶
type bucket struct {
	startTime  time.Time
	successes  int64
	failures   int64
	timeouts   int64
	rejections int64
	latencies  []time.Duration
	errorTypes map[string]int64
}

// newBucket 创建新桶
func newBucket(startTime time.Time) *bucket {
	return &bucket{
		startTime:  startTime,
		latencies:  make([]time.Duration, 0, 64),
		errorTypes: make(map[string]int64),
	}
}

// windowSnapshot 窗口聚合结果（仅覆盖未过期的桶）
type windowSnapshot struct {
	windowStart time.Time
	windowEnd   time.Time

	totalCalls int64 // successes + failures + timeouts（不含 rejections）
	successes  int64
	failures   int64
	timeouts   int64
	rejections int64

	failureRate float64 // (failures + timeouts) / totalCalls

	latencies  []time.Duration
	errorTypes map[string]int64
}

// failedCalls 计入失败率的调用数
func (s *windowSnapshot) failedCalls() int64 {
	return s.failures + s.timeouts
}

// windowCounts 仅含计数的窗口聚合
//
// 阈值评估在每次调用结果记录后都会执行，
// 这里不复制延迟样本和错误分布，复杂度 O(桶数量)。
type windowCounts struct {
	totalCalls  int64
	successes   int64
	failures    int64
	timeouts    int64
	failureRate float64
}

// failedCalls 计入失败率的调用数
func (c windowCounts) failedCalls() int64 {
	return c.failures + c.timeouts
}

// outcomeWindow 滑动窗口：环形时间桶，按注入时钟惰性旋转
//
// 容量与调用量无关，只与桶数量有关（WindowDuration / BucketDuration），
// 过期的桶在下一次读写时被覆盖。
type outcomeWindow struct {
	clock       Clock
	buckets     []*bucket
	bucketCount int
	bucketSize  time.Duration
	windowSize  time.Duration
	currentIdx  int
	lastRotate  time.Time
	mu          sync.Mutex
}

// newOutcomeWindow 创建滑动窗口
func newOutcomeWindow(config ResourceConfig, clock Clock) *outcomeWindow {
	bucketCount := int(config.WindowDuration / config.BucketDuration)
	if bucketCount < 1 {
		bucketCount = 1
	}

	now := clock.Now()
	buckets := make([]*bucket, bucketCount)
	for i := 0; i < bucketCount; i++ {
		buckets[i] = newBucket(now)
	}

	return &outcomeWindow{
		clock:       clock,
		buckets:     buckets,
		bucketCount: bucketCount,
		bucketSize:  config.BucketDuration,
		windowSize:  config.WindowDuration,
		lastRotate:  now,
	}
}

// record 记录一次调用结果到当前桶
func (w *outcomeWindow) record(kind OutcomeKind, duration time.Duration, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotateLocked()

	b := w.buckets[w.currentIdx]
	switch kind {
	case OutcomeSuccess:
		b.successes++
		b.latencies = append(b.latencies, duration)
	case OutcomeFailure:
		b.failures++
		b.latencies = append(b.latencies, duration)
		if err != nil {
			b.errorTypes[err.Error()]++
		}
	case OutcomeTimeout:
		b.timeouts++
		b.latencies = append(b.latencies, duration)
	case OutcomeRejected:
		b.rejections++
	}
}

// snapshot 聚合所有未过期桶的数据
//
// 复杂度 O(桶数量 + 延迟样本数)，与历史调用总量无关。
func (w *outcomeWindow) snapshot() *windowSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotateLocked()

	now := w.clock.Now()
	snap := &windowSnapshot{
		windowStart: now.Add(-w.windowSize),
		windowEnd:   now,
		errorTypes:  make(map[string]int64),
	}

	for _, b := range w.buckets {
		snap.successes += b.successes
		snap.failures += b.failures
		snap.timeouts += b.timeouts
		snap.rejections += b.rejections
		snap.latencies = append(snap.latencies, b.latencies...)

		for errType, count := range b.errorTypes {
			snap.errorTypes[errType] += count
		}
	}

	snap.totalCalls = snap.successes + snap.failures + snap.timeouts
	if snap.totalCalls > 0 {
		snap.failureRate = float64(snap.failures+snap.timeouts) / float64(snap.totalCalls)
	}

	return snap
}

// counts 聚合所有未过期桶的计数
func (w *outcomeWindow) counts() windowCounts {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotateLocked()

	var c windowCounts
	for _, b := range w.buckets {
		c.successes += b.successes
		c.failures += b.failures
		c.timeouts += b.timeouts
	}

	c.totalCalls = c.successes + c.failures + c.timeouts
	if c.totalCalls > 0 {
		c.failureRate = float64(c.failures+c.timeouts) / float64(c.totalCalls)
	}

	return c
}

// reset 清空窗口（状态切换时调用）
func (w *outcomeWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	for i := 0; i < w.bucketCount; i++ {
		w.buckets[i] = newBucket(now)
	}
	w.lastRotate = now
	w.currentIdx = 0
}

// rotateLocked 惰性旋转桶（调用方需持有锁）
//
// 距上次旋转每经过一个桶周期就前进一格，前进时覆盖最旧的桶，
// 从而实现过期数据的惰性淘汰。
func (w *outcomeWindow) rotateLocked() {
	now := w.clock.Now()
	elapsed := now.Sub(w.lastRotate)

	rotations := int(elapsed / w.bucketSize)
	if rotations == 0 {
		return
	}

	// 超过一整个窗口，全部桶都已过期
	if rotations > w.bucketCount {
		for i := 0; i < w.bucketCount; i++ {
			w.buckets[i] = newBucket(now)
		}
		w.currentIdx = 0
		w.lastRotate = now
		return
	}

	for i := 0; i < rotations; i++ {
		w.currentIdx = (w.currentIdx + 1) % w.bucketCount
		w.buckets[w.currentIdx] = newBucket(now)
	}

	w.lastRotate = w.lastRotate.Add(time.Duration(rotations) * w.bucketSize)
}
