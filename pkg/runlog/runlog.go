package runlog

import (
	"sync"

	"github.com/twitboost/twitboost-api/domains/dispatch"
)

// Log is a process-wide, bounded, volatile audit trail of dispatch runs.
// Newest entries come first. It is observability only: losing it on
// restart never loses a tweet's true status, which lives in the store.
type Log struct {
	mu       sync.Mutex
	entries  []dispatch.RunSummary
	capacity int
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = 100
	}
	return &Log{
		entries:  make([]dispatch.RunSummary, 0, capacity),
		capacity: capacity,
	}
}

// Record prepends a run entry, evicting the oldest once capacity is hit.
func (l *Log) Record(entry dispatch.RunSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]dispatch.RunSummary{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

// List returns a newest-first page of entries and the total count.
func (l *Log) List(limit, offset int) ([]dispatch.RunSummary, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := len(l.entries)
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []dispatch.RunSummary{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]dispatch.RunSummary, end-offset)
	copy(page, l.entries[offset:end])
	return page, total
}

// Len reports how many entries are currently retained.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
