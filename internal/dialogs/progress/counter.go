package progress

import (
	"sync"
	"time"

	"github.com/vm-affekt/mediagrab/internal/app"
)

// Counter remembers the latest progress of a download reported by yt-dlp.
// It is written by the download goroutine and read by status requests.
type Counter struct {
	mu        sync.RWMutex
	percent   float64
	updates   int
	startTime time.Time
	now       func() time.Time
}

func NewCounter() *Counter {
	return &Counter{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Observe is an app.ProgressFunc.
func (c *Counter) Observe(ev app.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.percent = ev.Percent
	c.updates++
}

func (c *Counter) Percentage() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.percent
}

// Started reports whether any progress was observed yet.
func (c *Counter) Started() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updates > 0
}

func (c *Counter) Elapsed() time.Duration {
	return c.now().Sub(c.startTime)
}
