package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/repo"
)

func TestRetentionService_Purge(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	clk := newClock()
	now := clk.Now()

	store := repo.NewSignupStore(db)
	store.Now = clk.Now
	rates := &repo.RateStore{DB: db}

	old := seedPending(t, store, "old@example.com", now.Add(-40*24*time.Hour))
	fresh := seedPending(t, store, "fresh@example.com", now.Add(-2*24*time.Hour))
	if err := rates.RecordRequest(ctx, domain.RateScopeIP, "10.0.0.1", now.Add(-40*24*time.Hour)); err != nil {
		t.Fatalf("seed window: %v", err)
	}
	if err := rates.RecordRequest(ctx, domain.RateScopeIP, "10.0.0.1", now); err != nil {
		t.Fatalf("seed window: %v", err)
	}

	svc := &RetentionService{Store: store, Rates: rates, Days: 30, Now: clk.Now}
	rep, err := svc.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if rep.Signups != 1 || rep.RateWindows != 1 {
		t.Fatalf("report = %+v; want 1 signup, 1 window", rep)
	}
	if got, _ := store.FindByID(ctx, old.ID); got != nil {
		t.Fatalf("old signup survived")
	}
	if got, _ := store.FindByID(ctx, fresh.ID); got == nil {
		t.Fatalf("fresh signup purged")
	}
}

func TestRetentionService_DefaultDaysAndNoRateStore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	clk := newClock()
	store := repo.NewSignupStore(db)
	store.Now = clk.Now

	seedPending(t, store, "a@example.com", clk.Now().Add(-(DefaultRetentionDays-1)*24*time.Hour))
	seedPending(t, store, "b@example.com", clk.Now().Add(-(DefaultRetentionDays+1)*24*time.Hour))

	rep, err := (&RetentionService{Store: store, Now: clk.Now}).Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if rep.Signups != 1 || rep.RateWindows != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

type failingPurger struct{}

func (failingPurger) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("locked")
}

func TestRetentionService_Errors(t *testing.T) {
	ctx := context.Background()

	// memStore does not implement retention.
	if _, err := (&RetentionService{Store: newMemStore()}).Purge(ctx); !errors.Is(err, ErrPersistence) {
		t.Fatalf("store error = %v; want ErrPersistence", err)
	}

	store := repo.NewSignupStore(newTestDB(t))
	if _, err := (&RetentionService{Store: store, Rates: failingPurger{}, Days: 1}).Purge(ctx); !errors.Is(err, ErrPersistence) {
		t.Fatalf("purger error = %v; want ErrPersistence", err)
	}
}
