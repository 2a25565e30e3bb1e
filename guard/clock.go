package guard

import (
	"github.com/jonboulle/clockwork"
)

// Clock 时间源接口（可注入，测试时使用 clockwork.NewFakeClock）
//
// 状态机和滑动窗口的所有时间判断都基于注入的 Clock，
// 内部不使用 time.Sleep 或轮询等待。
type Clock = clockwork.Clock

// defaultClock 返回真实时钟
func defaultClock() Clock {
	return clockwork.NewRealClock()
}
