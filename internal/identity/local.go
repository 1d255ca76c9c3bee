package identity

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocalIssuer is an in-process IdentityIssuer for development and tests.
// Accounts live in memory; links point at BaseURL with a random code.
type LocalIssuer struct {
	BaseURL string

	mu       sync.RWMutex
	accounts map[string]string // email -> activation code
}

// NewLocalIssuer returns an empty LocalIssuer. Emails in existing are treated
// as already registered.
func NewLocalIssuer(baseURL string, existing ...string) *LocalIssuer {
	l := &LocalIssuer{BaseURL: baseURL, accounts: map[string]string{}}
	for _, e := range existing {
		l.accounts[strings.ToLower(strings.TrimSpace(e))] = ""
	}
	return l
}

// AccountExists reports whether email was registered or issued a link.
func (l *LocalIssuer) AccountExists(_ context.Context, email string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[strings.ToLower(email)]
	return ok, nil
}

// IssueActivationLink registers email and returns a fresh activation link.
func (l *LocalIssuer) IssueActivationLink(_ context.Context, email string) (string, error) {
	code := uuid.NewString()

	l.mu.Lock()
	l.accounts[strings.ToLower(email)] = code
	l.mu.Unlock()

	base := strings.TrimRight(l.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8080/activate"
	}
	q := url.Values{}
	q.Set("email", email)
	q.Set("code", code)
	return base + "?" + q.Encode(), nil
}
