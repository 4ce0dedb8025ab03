package clock

import "time"

// SimClock 是回测用的确定性时钟，按固定 tick 间隔推进。
type SimClock struct {
	current time.Time
	step    time.Duration
}

// New 从起始时间与 tick 间隔构造时钟。
func New(start time.Time, step time.Duration) *SimClock {
	if step <= 0 {
		step = time.Second
	}
	return &SimClock{current: start, step: step}
}

// Now 返回当前模拟时间。
func (c *SimClock) Now() time.Time {
	return c.current
}

// Unix 返回当前模拟时间的 Unix 秒。
func (c *SimClock) Unix() int64 {
	return c.current.Unix()
}

// Advance 将时钟前移一个 tick 间隔。
func (c *SimClock) Advance() {
	c.current = c.current.Add(c.step)
}

// Step 返回 tick 间隔。
func (c *SimClock) Step() time.Duration {
	return c.step
}
