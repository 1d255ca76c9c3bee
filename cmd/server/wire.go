package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-signup-gate/internal/config"
	"github.com/tbourn/go-signup-gate/internal/identity"
	"github.com/tbourn/go-signup-gate/internal/notify"
	"github.com/tbourn/go-signup-gate/internal/repo"
	"github.com/tbourn/go-signup-gate/internal/services"
)

// rateBackend is the selected RateStore plus, for SQL, the purger the
// retention job uses. closeFn releases a Redis client.
type rateBackend struct {
	store   services.RateStore
	purger  services.RateWindowPurger
	ping    func(ctx context.Context) error
	closeFn func() error
}

func newRateBackend(ctx context.Context, cfg config.RateStoreConfig, db *gorm.DB) (rateBackend, error) {
	switch cfg.Kind {
	case "redis":
		client, err := repo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return rateBackend{}, fmt.Errorf("redis rate store: %w", err)
		}
		return rateBackend{
			store:   repo.NewRedisRateStore(client),
			ping:    func(ctx context.Context) error { return client.Ping(ctx).Err() },
			closeFn: client.Close,
		}, nil
	default:
		s := &repo.RateStore{DB: db}
		return rateBackend{store: s, purger: s}, nil
	}
}

func newIdentity(ctx context.Context, cfg config.IdentityConfig) (services.IdentityIssuer, error) {
	switch cfg.Provider {
	case "firebase":
		fb, err := identity.NewFirebaseIssuer(ctx, identity.FirebaseConfig{
			ProjectID:       cfg.ProjectID,
			CredentialsFile: cfg.CredentialsFile,
			ContinueURL:     cfg.ContinueURL,
		})
		if err != nil {
			return nil, fmt.Errorf("firebase identity: %w", err)
		}
		return fb, nil
	default:
		log.Warn().Msg("local identity issuer in use; activation links are not delivered by a real provider")
		return identity.NewLocalIssuer(cfg.ContinueURL), nil
	}
}

func newTransport(cfg config.EmailConfig) notify.Transport {
	switch cfg.Provider {
	case "sendgrid":
		return notify.NewSendGridTransport(cfg.SendGridAPIKey, cfg.From, cfg.FromName)
	case "smtp":
		return notify.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, cfg.FromName)
	default:
		return notify.LogTransport{}
	}
}
