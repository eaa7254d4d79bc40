package admission

import (
	"sync"
)

// DefaultViolationCap is the ring buffer capacity when none is given.
const DefaultViolationCap = 1000

// ViolationLog is a bounded in-memory ring buffer of recent denials.
// When full, appending evicts the oldest record. It is process-local
// and diagnostic only; records are never consulted for decisions and
// are lost on restart. Append never fails and never blocks on I/O, so
// recording a violation cannot slow down or fail a request.
type ViolationLog struct {
	mu     sync.Mutex
	recent []ViolationRecord
	cap    int
}

// NewViolationLog creates a ring buffer holding at most capacity
// records. A non-positive capacity falls back to DefaultViolationCap.
func NewViolationLog(capacity int) *ViolationLog {
	if capacity <= 0 {
		capacity = DefaultViolationCap
	}
	return &ViolationLog{
		recent: make([]ViolationRecord, 0, capacity),
		cap:    capacity,
	}
}

// Append records a violation, evicting the oldest when full.
func (l *ViolationLog) Append(r ViolationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.recent) >= l.cap {
		// Shift left, drop oldest.
		copy(l.recent, l.recent[1:])
		l.recent[len(l.recent)-1] = r
		return
	}
	l.recent = append(l.recent, r)
}

// Recent returns the n most recent violations, newest first.
func (l *ViolationLog) Recent(n int) []ViolationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := len(l.recent)
	if n > total {
		n = total
	}
	if n <= 0 {
		return nil
	}
	result := make([]ViolationRecord, n)
	for i := 0; i < n; i++ {
		result[i] = l.recent[total-1-i]
	}
	return result
}

// Len returns the number of records currently held.
func (l *ViolationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent)
}

// Cap returns the fixed capacity.
func (l *ViolationLog) Cap() int {
	return l.cap
}
