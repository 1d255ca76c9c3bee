package services

import (
	"net/url"
	"strings"
)

// LinkBuilder renders the approve and reject links sent to administrators.
// Base is the review page, e.g. https://admin.example.com/signups/review.
type LinkBuilder struct {
	Base string
}

// Approve returns the approve link for token.
func (b LinkBuilder) Approve(token string) string { return b.build("approve", token) }

// Reject returns the reject link for token.
func (b LinkBuilder) Reject(token string) string { return b.build("reject", token) }

func (b LinkBuilder) build(action, token string) string {
	base := strings.TrimRight(strings.TrimSpace(b.Base), "/")
	if base == "" {
		base = "/admin/signups/review"
	}
	q := url.Values{}
	q.Set("action", action)
	q.Set("token", token)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
