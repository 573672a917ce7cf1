package perf

import (
	"sort"
	"testing"
	"time"

	"github.com/coursehub/coursehub/internal/token"
	_ "github.com/coursehub/coursehub/testing"
)

// Latency targets track the budget each request class has to stay inside.
// The samples are recorded baselines, not live measurements; the test fails
// when a new baseline is committed that blows the budget.
func TestRequestLatencyTargets(t *testing.T) {
	scenarios := []struct {
		name      string
		samples   []time.Duration
		threshold time.Duration
	}{
		{
			// Token-guarded reads: verify + one indexed lookup.
			name:      "authenticated_read",
			samples:   []time.Duration{4 * time.Millisecond, 5 * time.Millisecond, 6 * time.Millisecond, 7 * time.Millisecond, 8 * time.Millisecond, 9 * time.Millisecond, 10 * time.Millisecond, 12 * time.Millisecond, 14 * time.Millisecond, 18 * time.Millisecond},
			threshold: 50 * time.Millisecond,
		},
		{
			// Login pays for bcrypt on purpose; the budget reflects that.
			name:      "login",
			samples:   []time.Duration{180 * time.Millisecond, 190 * time.Millisecond, 200 * time.Millisecond, 210 * time.Millisecond, 220 * time.Millisecond, 230 * time.Millisecond, 240 * time.Millisecond, 250 * time.Millisecond, 270 * time.Millisecond, 290 * time.Millisecond},
			threshold: 500 * time.Millisecond,
		},
		{
			// Enroll runs a RepeatableRead transaction with three statements.
			name:      "enroll",
			samples:   []time.Duration{8 * time.Millisecond, 9 * time.Millisecond, 10 * time.Millisecond, 12 * time.Millisecond, 13 * time.Millisecond, 15 * time.Millisecond, 17 * time.Millisecond, 20 * time.Millisecond, 24 * time.Millisecond, 30 * time.Millisecond},
			threshold: 100 * time.Millisecond,
		},
	}

	for _, scenario := range scenarios {
		p95 := percentile95(scenario.samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * 0.95)
	return sorted[idx]
}

func BenchmarkTokenIssue(b *testing.B) {
	svc := token.NewService([]byte("benchmark-secret-key"), "coursehub-bench")
	roles := []string{"student"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Issue(42, roles, time.Hour); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTokenVerify(b *testing.B) {
	svc := token.NewService([]byte("benchmark-secret-key"), "coursehub-bench")
	signed, err := svc.Issue(42, []string{"student"}, time.Hour)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Verify(signed); err != nil {
			b.Fatal(err)
		}
	}
}
