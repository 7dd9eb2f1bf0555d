package errors

import (
	"sync"
	"time"
)

type rateLimiter struct {
	lock   sync.Mutex
	silent time.Duration
	now    func() time.Time
	buffer map[string]*errorStats
}

func newRateLimiter(silent time.Duration) *rateLimiter {
	return &rateLimiter{
		silent: silent,
		now:    time.Now,
		buffer: map[string]*errorStats{},
	}
}

type errorStats struct {
	// 总计的发生次数
	totalOccurCount int
	// occurrences swallowed since the last report
	occurCountSinceLastReport int
	lastReportTime            *time.Time
}

// limited records one occurrence of key and reports whether it falls inside
// the silent window of the previous report. The returned stats are a snapshot
// taken before this occurrence was recorded.
func (b *rateLimiter) limited(key string) (bool, errorStats) {
	b.lock.Lock()
	defer b.lock.Unlock()
	stats := b.buffer[key]
	if stats == nil {
		stats = &errorStats{}
		b.buffer[key] = stats
	}
	snapshot := *stats
	now := b.now()
	stats.totalOccurCount++
	if stats.lastReportTime != nil && now.Sub(*stats.lastReportTime) < b.silent {
		stats.occurCountSinceLastReport++
		return true, snapshot
	}
	stats.occurCountSinceLastReport = 0
	stats.lastReportTime = &now
	return false, snapshot
}
