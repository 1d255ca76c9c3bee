package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/repo"
)

func TestRateGuard_Thresholds(t *testing.T) {
	cases := []struct {
		name      string
		scope     domain.RateScope
		count     int64
		allowed   bool
		retry     time.Duration
		checkFunc func(g *RateGuard) RateDecision
	}{
		{"ip below", domain.RateScopeIP, 4, true, 0, func(g *RateGuard) RateDecision { return g.CheckIPLimit(context.Background(), "1.1.1.1") }},
		{"ip at limit", domain.RateScopeIP, 5, false, time.Hour, func(g *RateGuard) RateDecision { return g.CheckIPLimit(context.Background(), "1.1.1.1") }},
		{"email none", domain.RateScopeEmail, 0, true, 0, func(g *RateGuard) RateDecision { return g.CheckEmailLimit(context.Background(), "a@x.com") }},
		{"email at limit", domain.RateScopeEmail, 1, false, 24 * time.Hour, func(g *RateGuard) RateDecision { return g.CheckEmailLimit(context.Background(), "a@x.com") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewRateGuard(&fakeRates{sum: map[domain.RateScope]int64{tc.scope: tc.count}})
			d := tc.checkFunc(g)
			if d.Allowed != tc.allowed || d.RetryAfter != tc.retry {
				t.Fatalf("got %+v, want allowed=%v retry=%v", d, tc.allowed, tc.retry)
			}
			if !d.Allowed && d.Message == "" {
				t.Fatalf("denial must carry a message")
			}
		})
	}
}

func TestRateGuard_FailsOpenOnReadError(t *testing.T) {
	g := NewRateGuard(&fakeRates{sumErr: errors.New("db down")})
	before := testutil.ToFloat64(rateGuardDecisions.WithLabelValues("ip", outcomeFailOpen))

	if d := g.CheckIPLimit(context.Background(), "1.1.1.1"); !d.Allowed {
		t.Fatalf("expected fail-open, got %+v", d)
	}
	if d := g.CheckEmailLimit(context.Background(), "a@x.com"); !d.Allowed {
		t.Fatalf("expected fail-open, got %+v", d)
	}
	if got := testutil.ToFloat64(rateGuardDecisions.WithLabelValues("ip", outcomeFailOpen)); got != before+1 {
		t.Fatalf("fail_open counter = %v, want %v", got, before+1)
	}
}

func TestRateGuard_RecordSkipsEmptyIP(t *testing.T) {
	rates := &fakeRates{}
	g := NewRateGuard(rates)

	if err := g.Record(context.Background(), "", "a@x.com"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := g.Record(context.Background(), "1.1.1.1", "b@x.com"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	want := []string{"email:a@x.com", "ip:1.1.1.1", "email:b@x.com"}
	if len(rates.records) != len(want) {
		t.Fatalf("records = %v", rates.records)
	}
	for i := range want {
		if rates.records[i] != want[i] {
			t.Fatalf("records = %v, want %v", rates.records, want)
		}
	}

	rates.recErr = errors.New("write failed")
	if err := g.Record(context.Background(), "1.1.1.1", "a@x.com"); err == nil {
		t.Fatalf("expected record error")
	}
}

// Five accepted submissions from one IP inside an hour; the sixth is denied.
func TestRateGuard_SixthWithinHourDenied_SQLStore(t *testing.T) {
	db := newTestDB(t)
	clk := newClock()
	g := NewRateGuard(&repo.RateStore{DB: db})
	g.Now = clk.Now

	for i := 0; i < 5; i++ {
		if d := g.CheckIPLimit(context.Background(), "203.0.113.9"); !d.Allowed {
			t.Fatalf("submission %d denied: %+v", i+1, d)
		}
		if err := g.Record(context.Background(), "203.0.113.9", ""); err != nil {
			t.Fatalf("Record: %v", err)
		}
		clk.Advance(5 * time.Minute)
	}
	d := g.CheckIPLimit(context.Background(), "203.0.113.9")
	if d.Allowed || d.RetryAfter != 3600*time.Second {
		t.Fatalf("6th submission: got %+v", d)
	}

	// another address is unaffected
	if d := g.CheckIPLimit(context.Background(), "203.0.113.10"); !d.Allowed {
		t.Fatalf("other ip denied: %+v", d)
	}
}

// Check and record are separate steps: checks that all run before any record
// admit more than the limit.
func TestRateGuard_CheckThenRecordIsNotAtomic(t *testing.T) {
	db := newTestDB(t)
	g := NewRateGuard(&repo.RateStore{DB: db})
	g.EmailLimit = 1

	first := g.CheckEmailLimit(context.Background(), "a@x.com")
	second := g.CheckEmailLimit(context.Background(), "a@x.com")
	if !first.Allowed || !second.Allowed {
		t.Fatalf("both checks should pass before any record: %+v %+v", first, second)
	}
	_ = g.Record(context.Background(), "", "a@x.com")
	_ = g.Record(context.Background(), "", "a@x.com")

	n, err := (&repo.RateStore{DB: db}).SumRequests(context.Background(), domain.RateScopeEmail, "a@x.com", time.Now().Add(-24*time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("over-admission not visible: n=%d err=%v", n, err)
	}
	if d := g.CheckEmailLimit(context.Background(), "a@x.com"); d.Allowed {
		t.Fatalf("third check should be denied")
	}
}
