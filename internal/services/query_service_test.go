package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/repo"
)

func TestQuery_InvalidStatus(t *testing.T) {
	svc := NewQueryService(newMemStore())
	if _, err := svc.ListByStatus(context.Background(), "archived", 10, 0); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.CountByStatus(context.Background(), ""); !errors.Is(err, ErrInvalidStatus) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestQuery_ListNewestFirstAndCount(t *testing.T) {
	db := newTestDB(t)
	store := repo.NewSignupStore(db)
	svc := NewQueryService(store)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, seedPending(t, store, "u@x.com", base.Add(time.Duration(i)*time.Hour)).ID)
	}

	items, err := svc.ListByStatus(context.Background(), "PENDING", 2, 0)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(items) != 2 || items[0].ID != ids[2] || items[1].ID != ids[1] {
		t.Fatalf("unexpected order: %+v", items)
	}
	items, _ = svc.ListByStatus(context.Background(), "pending", 2, 2)
	if len(items) != 1 || items[0].ID != ids[0] {
		t.Fatalf("unexpected second page: %+v", items)
	}

	n, err := svc.CountByStatus(context.Background(), "pending")
	if err != nil || n != 3 {
		t.Fatalf("CountByStatus = %d, %v", n, err)
	}
	if n, _ := svc.CountByStatus(context.Background(), "approved"); n != 0 {
		t.Fatalf("approved count = %d", n)
	}
}

func TestQuery_StoreErrors(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("db gone")
	svc := NewQueryService(store)

	if _, err := svc.ListByStatus(context.Background(), "pending", 1, 0); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := svc.CountByStatus(context.Background(), "pending"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestQuery_Get(t *testing.T) {
	store := newMemStore()
	svc := NewQueryService(store)
	rec := seedPending(t, store, "a@x.com", time.Now())

	got, err := svc.Get(context.Background(), rec.ID)
	if err != nil || got.ID != rec.ID {
		t.Fatalf("Get: %+v %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrSignupNotFound) {
		t.Fatalf("expected ErrSignupNotFound, got %v", err)
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct{ limit, offset, wantL, wantO int }{
		{0, 0, DefaultPageLimit, 0},
		{-5, -1, DefaultPageLimit, 0},
		{50, 10, 50, 10},
		{1000, 0, MaxPageLimit, 0},
	}
	for _, tc := range cases {
		l, o := ClampPage(tc.limit, tc.offset)
		if l != tc.wantL || o != tc.wantO {
			t.Fatalf("ClampPage(%d,%d) = (%d,%d), want (%d,%d)", tc.limit, tc.offset, l, o, tc.wantL, tc.wantO)
		}
	}
}

func TestRetention_Purge(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &repo.SignupStore{DB: db, Now: func() time.Time { return now }}
	rates := &repo.RateStore{DB: db}

	seedPending(t, store, "old@x.com", now.Add(-91*24*time.Hour))
	approved := seedPending(t, store, "old2@x.com", now.Add(-100*24*time.Hour))
	approved, _ = approved.Approve(testAdmin, now.Add(-99*24*time.Hour))
	_ = store.Update(context.Background(), approved)
	keep := seedPending(t, store, "new@x.com", now.Add(-10*24*time.Hour))

	_ = rates.RecordRequest(context.Background(), domain.RateScopeEmail, "old@x.com", now.Add(-91*24*time.Hour))
	_ = rates.RecordRequest(context.Background(), domain.RateScopeEmail, "new@x.com", now)

	svc := &RetentionService{Store: store, Rates: rates, Days: 90, Now: func() time.Time { return now }}
	rep, err := svc.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if rep.Signups != 2 || rep.RateWindows != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if got, _ := store.FindByID(context.Background(), keep.ID); got == nil {
		t.Fatalf("recent record purged")
	}
}

func TestRetention_StoreError(t *testing.T) {
	svc := &RetentionService{Store: newMemStore()}
	if _, err := svc.Purge(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestErrorCategories(t *testing.T) {
	cases := []struct {
		err, cat error
	}{
		{ErrInvalidEmail, ErrValidation},
		{ErrInvalidToken, ErrValidation},
		{ErrInvalidAdmin, ErrValidation},
		{ErrSignupNotFound, ErrNotFound},
		{ErrDuplicateRequest, ErrConflict},
		{ErrAccountExists, ErrConflict},
		{ErrAlreadyProcessed, ErrConflict},
		{ErrAlreadyUsed, ErrConflict},
		{ErrTokenExpired, ErrExpired},
		{ErrIssuanceFailed, ErrUpstream},
		{ErrIdentityUnavailable, ErrUpstream},
		{ErrPersistenceFailed, ErrPersistence},
		{ErrUpdateFailed, ErrPersistence},
		{&RateLimitedError{Scope: domain.RateScopeIP}, ErrRateLimited},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.cat) {
			t.Fatalf("%v should match %v", tc.err, tc.cat)
		}
	}
	if !errors.Is(ErrInvalidToken, domain.ErrInvalidToken) {
		t.Fatalf("validation errors should wrap the domain error")
	}
	if outcomeOf(nil) != outcomeOK || outcomeOf(ErrAlreadyUsed) != "conflict" || outcomeOf(errors.New("x")) != outcomeError {
		t.Fatalf("unexpected outcome labels")
	}
}
