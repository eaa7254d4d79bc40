package admission

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestViolationLogAppendAndRecent(t *testing.T) {
	t.Parallel()

	l := NewViolationLog(10)
	for i := 0; i < 3; i++ {
		l.Append(ViolationRecord{
			Identity: "203.0.113." + strconv.Itoa(i),
			Route:    "/auth/login",
			At:       time.Unix(int64(i), 0),
		})
	}

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	recent := l.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d records", len(recent))
	}
	if recent[0].Identity != "203.0.113.2" || recent[1].Identity != "203.0.113.1" {
		t.Errorf("Recent(2) order = %s, %s, want newest first", recent[0].Identity, recent[1].Identity)
	}
}

func TestViolationLogEvictsOldest(t *testing.T) {
	t.Parallel()

	l := NewViolationLog(3)
	for i := 0; i < 5; i++ {
		l.Append(ViolationRecord{Identity: strconv.Itoa(i)})
	}

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want capacity 3", l.Len())
	}

	recent := l.Recent(3)
	want := []string{"4", "3", "2"}
	for i, r := range recent {
		if r.Identity != want[i] {
			t.Errorf("Recent()[%d] = %s, want %s", i, r.Identity, want[i])
		}
	}
}

func TestViolationLogDefaultCapacity(t *testing.T) {
	t.Parallel()

	l := NewViolationLog(0)
	if l.Cap() != DefaultViolationCap {
		t.Errorf("Cap() = %d, want %d", l.Cap(), DefaultViolationCap)
	}
}

func TestViolationLogRecentBounds(t *testing.T) {
	t.Parallel()

	l := NewViolationLog(5)
	l.Append(ViolationRecord{Identity: "a"})

	if got := l.Recent(0); got != nil {
		t.Errorf("Recent(0) = %v, want nil", got)
	}
	if got := l.Recent(-1); got != nil {
		t.Errorf("Recent(-1) = %v, want nil", got)
	}
	if got := l.Recent(100); len(got) != 1 {
		t.Errorf("Recent(100) returned %d records, want 1", len(got))
	}
}

func TestViolationLogConcurrentAppend(t *testing.T) {
	t.Parallel()

	l := NewViolationLog(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Append(ViolationRecord{Identity: strconv.Itoa(n)})
			}
		}(i)
	}
	wg.Wait()

	if l.Len() != 100 {
		t.Errorf("Len() = %d after concurrent appends, want capacity 100", l.Len())
	}
}
