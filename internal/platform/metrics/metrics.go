package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	resolved   uint64
	unmatched  uint64
	noEmployee uint64
	failed     uint64

	syncRuns     uint64
	syncFailures uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// ObserveResolution counts hierarchy resolutions by outcome.
func (c *Collector) ObserveResolution(source string) {
	switch source {
	case "responsible", "membership":
		atomic.AddUint64(&c.resolved, 1)
	case "unmatched":
		atomic.AddUint64(&c.unmatched, 1)
	case "no_employee":
		atomic.AddUint64(&c.noEmployee, 1)
	default:
		atomic.AddUint64(&c.failed, 1)
	}
}

func (c *Collector) ObserveSync(err error) {
	atomic.AddUint64(&c.syncRuns, 1)
	if err != nil {
		atomic.AddUint64(&c.syncFailures, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"hierarchy": map[string]uint64{
			"resolved":   atomic.LoadUint64(&c.resolved),
			"unmatched":  atomic.LoadUint64(&c.unmatched),
			"noEmployee": atomic.LoadUint64(&c.noEmployee),
			"failed":     atomic.LoadUint64(&c.failed),
		},
		"sync": map[string]uint64{
			"runs":     atomic.LoadUint64(&c.syncRuns),
			"failures": atomic.LoadUint64(&c.syncFailures),
		},
	}
}
