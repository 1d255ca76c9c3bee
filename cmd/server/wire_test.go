package main

import (
	"context"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-signup-gate/internal/config"
	"github.com/tbourn/go-signup-gate/internal/identity"
	"github.com/tbourn/go-signup-gate/internal/notify"
	"github.com/tbourn/go-signup-gate/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:wiredb?mode=memory&cache=shared"), &gorm.Config{
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

func TestNewTransport(t *testing.T) {
	if _, ok := newTransport(config.EmailConfig{Provider: "log"}).(notify.LogTransport); !ok {
		t.Fatalf("log provider should yield LogTransport")
	}
	if _, ok := newTransport(config.EmailConfig{Provider: "sendgrid", SendGridAPIKey: "k", From: "a@b.c"}).(*notify.SendGridTransport); !ok {
		t.Fatalf("sendgrid provider should yield SendGridTransport")
	}
	if _, ok := newTransport(config.EmailConfig{Provider: "smtp", SMTPHost: "h", SMTPPort: 25, From: "a@b.c"}).(*notify.SMTPTransport); !ok {
		t.Fatalf("smtp provider should yield SMTPTransport")
	}
}

func TestNewIdentity_Local(t *testing.T) {
	iss, err := newIdentity(context.Background(), config.IdentityConfig{Provider: "local", ContinueURL: "http://x/activate"})
	if err != nil {
		t.Fatalf("newIdentity: %v", err)
	}
	if _, ok := iss.(*identity.LocalIssuer); !ok {
		t.Fatalf("expected LocalIssuer, got %T", iss)
	}
}

func TestNewRateBackend_SQL(t *testing.T) {
	db := newTestDB(t)
	rb, err := newRateBackend(context.Background(), config.RateStoreConfig{Kind: "sql"}, db)
	if err != nil {
		t.Fatalf("newRateBackend: %v", err)
	}
	if rb.store == nil || rb.purger == nil || rb.closeFn != nil {
		t.Fatalf("sql backend unexpected: %+v", rb)
	}
}

func TestNewScheduler_Jobs(t *testing.T) {
	db := newTestDB(t)
	rb, _ := newRateBackend(context.Background(), config.RateStoreConfig{Kind: "sql"}, db)
	cfg := config.Config{Retention: config.RetentionConfig{Days: 90, Schedule: "0 30 3 * * *", Timeout: time.Minute}}

	s, err := newScheduler(cfg, db, repo.NewSignupStore(db), rb)
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}
	if s.Entries() != 2 {
		t.Fatalf("expected retention + idempotency jobs, got %d", s.Entries())
	}

	cfg.Retention.Days = 0
	s, err = newScheduler(cfg, db, repo.NewSignupStore(db), rb)
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("disabled retention should leave one job, got %d", s.Entries())
	}

	cfg.Retention = config.RetentionConfig{Days: 1, Schedule: "not a cron"}
	if _, err := newScheduler(cfg, db, repo.NewSignupStore(db), rb); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestReadyCheck(t *testing.T) {
	db := newTestDB(t)
	if err := readyCheck(db, rateBackend{})(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
}
