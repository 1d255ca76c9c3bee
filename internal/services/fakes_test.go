package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/repo"
)

// ---------- sqlite-backed stores ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:signupsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// ---------- in-memory SignupStore ----------

type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.Signup

	// optional failure hooks
	saveErr   error
	updateErr error
	findErr   error

	// afterFind runs after FindByEmail returns, before the caller continues.
	afterFind func()
}

func newMemStore() *memStore { return &memStore{rows: map[string]domain.Signup{}} }

func (m *memStore) Save(_ context.Context, rec domain.Signup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rows[rec.ID] = rec
	return nil
}

func (m *memStore) Update(_ context.Context, rec domain.Signup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[rec.ID]; !ok {
		return repo.ErrNotFound
	}
	m.rows[rec.ID] = rec
	return nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if r, ok := m.rows[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*domain.Signup, error) {
	m.mu.Lock()
	var best *domain.Signup
	err := m.findErr
	if err == nil {
		for _, r := range m.rows {
			r := r
			if r.Email == email && (best == nil || r.CreatedAt.After(best.CreatedAt)) {
				best = &r
			}
		}
	}
	hook := m.afterFind
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return best, err
}

func (m *memStore) FindByToken(_ context.Context, token string) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.rows {
		if r.Token == strings.ToLower(token) {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByStatus(_ context.Context, st domain.Status, limit, offset int) ([]domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []domain.Signup{}
	for _, r := range m.rows {
		if r.Status == st {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []domain.Signup{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountByStatus(_ context.Context, st domain.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return 0, m.findErr
	}
	var n int64
	for _, r := range m.rows {
		if r.Status == st {
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	return 0, errors.New("not implemented in memStore")
}

func (m *memStore) get(t *testing.T, id string) domain.Signup {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		t.Fatalf("record %s not stored", id)
	}
	return r
}

func (m *memStore) countPending(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.Email == email && r.Status == domain.StatusPending {
			n++
		}
	}
	return n
}

// ---------- RateStore ----------

type fakeRates struct {
	mu      sync.Mutex
	sum     map[domain.RateScope]int64
	sumErr  error
	recErr  error
	records []string
}

func (f *fakeRates) SumRequests(_ context.Context, scope domain.RateScope, _ string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	return f.sum[scope], nil
}

func (f *fakeRates) RecordRequest(_ context.Context, scope domain.RateScope, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recErr != nil {
		return f.recErr
	}
	f.records = append(f.records, string(scope)+":"+id)
	return nil
}

// ---------- IdentityIssuer ----------

type fakeIdentity struct {
	mu        sync.Mutex
	exists    map[string]bool
	existsErr error
	issueErr  error
	issued    []string
}

func (f *fakeIdentity) AccountExists(_ context.Context, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.exists[email], nil
}

func (f *fakeIdentity) IssueActivationLink(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issueErr != nil {
		return "", f.issueErr
	}
	f.issued = append(f.issued, email)
	return "https://id.example.com/activate?email=" + email, nil
}

// ---------- Notifier ----------

type fakeNotifier struct {
	mu          sync.Mutex
	alerts      []AdminAlert
	activations []string
	rejections  []string
	err         error
	panicOn     string
}

func (f *fakeNotifier) NotifyAdmins(_ context.Context, a AdminAlert) error {
	if f.panicOn == "admin" {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	return f.err
}

func (f *fakeNotifier) SendActivation(_ context.Context, rec domain.Signup, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activations = append(f.activations, rec.ID+" "+link)
	return f.err
}

func (f *fakeNotifier) SendRejection(_ context.Context, rec domain.Signup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejections = append(f.rejections, rec.ID)
	return f.err
}

// ---------- helpers ----------

const testAdmin = "6ba7b810-9dad-41d1-80b4-00c04fd430c8"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)}
}

// seedPending stores a pending record created at created and returns it.
func seedPending(t *testing.T, store SignupStore, email string, created time.Time) domain.Signup {
	t.Helper()
	rec := domain.NewSignup(uuid.NewString(), uuid.NewString(), domain.NewSignupParams{
		Email: email,
		Name:  "Alice",
	}, created)
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rec
}
