package throttle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowRefill(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Hour)
	s.SetBucketGroup("analyze", &BucketConf{Burst: 2, Increment: 1, PeriodMS: 1000})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if !s.Allow("analyze", "ip", now) || !s.Allow("analyze", "ip", now) {
		t.Fatal("burst of 2 not allowed")
	}
	if s.Allow("analyze", "ip", now) {
		t.Fatal("third call allowed within the period")
	}
	if !s.Allow("analyze", "other", now) {
		t.Fatal("buckets are per key")
	}
	if !s.Allow("analyze", "ip", now.Add(time.Second)) {
		t.Fatal("not refilled after one period")
	}
	if s.Allow("nope", "ip", now) {
		t.Fatal("unknown group allowed")
	}
}

func TestCleanup(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Hour)
	s.SetBucketGroup("submit", &BucketConf{Burst: 1, Increment: 1, Period: time.Second})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Allow("submit", "old", now)
	s.Allow("submit", "new", now.Add(2*time.Hour))
	s.Cleanup(now.Add(2 * time.Hour))
	if _, ok := s.GetBucket("submit", "old"); ok {
		t.Error("old bucket kept")
	}
	if _, ok := s.GetBucket("submit", "new"); !ok {
		t.Error("new bucket removed")
	}
}

func TestWrapper(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Hour)
	s.SetBucketGroup("submit", &BucketConf{Burst: 1, Increment: 1, Period: time.Hour})
	h := (&Wrapper{Store: s, Group: "submit", Key: func(r *http.Request) string { return "k" }}).
		Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
}

func TestServiceLifecycle(t *testing.T) {
	s := NewBucketStore[string](context.Background(), 10*time.Millisecond, time.Hour)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start succeeded")
	}
	s.Stop()
	select {
	case err := <-s.Done():
		if err != nil {
			t.Errorf("done err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
}

func TestTakeReportsWait(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Hour)
	s.SetBucketGroup("apply", &BucketConf{Burst: 1, Increment: 1, Period: 10 * time.Second})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if ok, _ := s.Take("apply", "ip", now); !ok {
		t.Fatal("first take refused")
	}
	ok, wait := s.Take("apply", "ip", now.Add(3*time.Second))
	if ok || wait != 7*time.Second {
		t.Fatalf("got ok=%v wait=%v", ok, wait)
	}
	if got := retryAfterSeconds(wait); got != 7 {
		t.Errorf("retry after = %d", got)
	}
	if got := retryAfterSeconds(200 * time.Millisecond); got != 1 {
		t.Errorf("retry after floor = %d", got)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	c := &BucketConf{}
	c.Normalize()
	if c.Burst != 1 || c.Increment != 1 || c.Period != time.Second {
		t.Errorf("normalized = %+v", c)
	}
}
