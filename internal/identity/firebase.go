// Package identity implements the account-side collaborators of the signup
// flows: checking whether an account already exists for an email and issuing
// the activation link an approved user follows to set a password.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// authClient is the subset of *auth.Client the issuer uses.
type authClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	PasswordResetLinkWithSettings(ctx context.Context, email string, settings *auth.ActionCodeSettings) (string, error)
}

// FirebaseConfig holds the settings for NewFirebaseIssuer.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	// ContinueURL is where the user lands after setting a password.
	ContinueURL string
}

// FirebaseIssuer backs IdentityIssuer with Firebase Authentication.
// Approved users get a passwordless account and a password-setup link.
type FirebaseIssuer struct {
	client      authClient
	continueURL string

	// isNotFound is auth.IsUserNotFound outside tests.
	isNotFound func(error) bool
}

// NewFirebaseIssuer initializes the Firebase app and its Auth client.
func NewFirebaseIssuer(ctx context.Context, cfg FirebaseConfig) (*FirebaseIssuer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return newFirebaseIssuer(client, cfg.ContinueURL), nil
}

func newFirebaseIssuer(client authClient, continueURL string) *FirebaseIssuer {
	return &FirebaseIssuer{
		client:      client,
		continueURL: strings.TrimSpace(continueURL),
		isNotFound:  auth.IsUserNotFound,
	}
}

// AccountExists reports whether an enabled account uses email.
func (f *FirebaseIssuer) AccountExists(ctx context.Context, email string) (bool, error) {
	u, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		if f.isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return u != nil && !u.Disabled, nil
}

// IssueActivationLink makes sure an account exists for email and returns a
// password-setup link for it.
func (f *FirebaseIssuer) IssueActivationLink(ctx context.Context, email string) (string, error) {
	if _, err := f.client.GetUserByEmail(ctx, email); err != nil {
		if !f.isNotFound(err) {
			return "", fmt.Errorf("lookup user: %w", err)
		}
		params := (&auth.UserToCreate{}).Email(email).EmailVerified(true)
		if _, err := f.client.CreateUser(ctx, params); err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
	}

	var settings *auth.ActionCodeSettings
	if f.continueURL != "" {
		settings = &auth.ActionCodeSettings{URL: f.continueURL}
	}
	link, err := f.client.PasswordResetLinkWithSettings(ctx, email, settings)
	if err != nil {
		return "", fmt.Errorf("generate link: %w", err)
	}
	if link == "" {
		return "", errors.New("generate link: empty link")
	}
	return link, nil
}
