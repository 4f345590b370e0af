package progress

import (
	"errors"
	"time"
)

// EstimatedTime extrapolates the remaining time from the average speed so far.
func (c *Counter) EstimatedTime() (time.Duration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.percent <= 0 {
		return 0, errors.New("can't compute estimated time when nothing is downloaded yet")
	}
	if c.percent >= 100 {
		return 0, nil
	}
	elapsed := c.now().Sub(c.startTime)
	remaining := float64(elapsed) * (100 - c.percent) / c.percent
	return time.Duration(remaining), nil
}
