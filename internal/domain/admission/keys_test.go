package admission

import (
	"strings"
	"testing"
	"time"
)

func TestWindowStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		epoch  int64
		window time.Duration
		want   int64
	}{
		{"start of window", 120, 60 * time.Second, 120},
		{"mid window", 155, 60 * time.Second, 120},
		{"last second of window", 179, 60 * time.Second, 120},
		{"next window", 180, 60 * time.Second, 180},
		{"one second window", 7, time.Second, 7},
		{"five minute window", 7*300 + 42, 5 * time.Minute, 7 * 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := WindowStart(time.Unix(tt.epoch, 0), tt.window)
			if got != tt.want {
				t.Errorf("WindowStart(%d, %v) = %d, want %d", tt.epoch, tt.window, got, tt.want)
			}
		})
	}
}

func TestWindowStartStableWithinWindow(t *testing.T) {
	t.Parallel()

	window := 60 * time.Second
	base := WindowStart(time.Unix(6000, 0), window)
	for off := int64(0); off < 60; off++ {
		if got := WindowStart(time.Unix(6000+off, 0), window); got != base {
			t.Fatalf("WindowStart at offset %d = %d, want %d", off, got, base)
		}
	}
	if got := WindowStart(time.Unix(6060, 0), window); got == base {
		t.Error("WindowStart did not advance at the window boundary")
	}
}

func TestKeyFormat(t *testing.T) {
	t.Parallel()

	got := Key(DimensionIP, "203.0.113.7", 1700000040)
	want := "rl:ip:203.0.113.7:1700000040"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}

	got = Key(DimensionRoute, "/auth/login", 1700000040)
	want = "rl:route:/auth/login:1700000040"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}

	got = Key(DimensionUser, "42", 1700000040)
	want = "rl:user:42:1700000040"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestKeyBoundsLongValues(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 4096)
	k1 := Key(DimensionIP, long, 100)
	k2 := Key(DimensionIP, long, 100)
	if k1 != k2 {
		t.Error("Key() not deterministic for long values")
	}
	if len(k1) > 64 {
		t.Errorf("Key() length = %d for hostile value, want bounded", len(k1))
	}

	other := Key(DimensionIP, strings.Repeat("b", 4096), 100)
	if k1 == other {
		t.Error("Key() collides for distinct long values")
	}
}

func TestPolicyTableLookup(t *testing.T) {
	t.Parallel()

	table := NewPolicyTable([]Policy{
		{Route: "/auth/login", Limit: 5, Window: 60 * time.Second},
		{Route: "/upload", Limit: 10},
		{Route: "/api/*", Limit: 50, Window: 30 * time.Second},
		{Route: "/api/ml/*", Limit: 20},
	}, Policy{Limit: 100, Window: 60 * time.Second})

	tests := []struct {
		route      string
		wantLimit  int
		wantWindow time.Duration
	}{
		{"/auth/login", 5, 60 * time.Second},
		{"/upload", 10, 60 * time.Second}, // zero window inherits default
		{"/api/vehicles", 50, 30 * time.Second},
		{"/api/ml/predict", 20, 60 * time.Second}, // longest prefix wins
		{"/anything/else", 100, 60 * time.Second},
	}

	for _, tt := range tests {
		p := table.PolicyFor(tt.route)
		if p.Limit != tt.wantLimit {
			t.Errorf("PolicyFor(%q).Limit = %d, want %d", tt.route, p.Limit, tt.wantLimit)
		}
		if p.Window != tt.wantWindow {
			t.Errorf("PolicyFor(%q).Window = %v, want %v", tt.route, p.Window, tt.wantWindow)
		}
	}
}

func TestPolicyTableExactBeatsPrefix(t *testing.T) {
	t.Parallel()

	table := NewPolicyTable([]Policy{
		{Route: "/api/*", Limit: 50, Window: time.Minute},
		{Route: "/api/login", Limit: 5, Window: time.Minute},
	}, Policy{Limit: 100, Window: time.Minute})

	if got := table.PolicyFor("/api/login").Limit; got != 5 {
		t.Errorf("PolicyFor exact route limit = %d, want 5", got)
	}
}
