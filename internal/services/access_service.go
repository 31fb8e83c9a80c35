// Package services – AccessService
//
// This file implements the premium-access check: validate the email shape,
// consult the configured membership source, and record a lead for the sales
// side regardless of outcome.
//
// Membership sources are tried in a fixed priority order: the allow-all
// flag, then the static allow-list, then the external membership webhook.
// The first configured source decides; with none configured the check
// denies and reports source "default".
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/repo"
)

// emailRE is a pragmatic shape check, not full RFC 5322.
var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AccessService answers whether an email holds premium access.
type AccessService struct {
	// DB is the GORM handle used to record leads.
	DB *gorm.DB
	// AllowAll grants access to every valid email when set.
	AllowAll bool
	// AllowList is a static membership list (matched case-insensitively).
	AllowList []string
	// WebhookURL is the external membership source consulted when neither
	// AllowAll nor AllowList is configured.
	WebhookURL string
	// HTTPClient is the transport for webhook checks; a 10s-timeout client
	// is used when nil.
	HTTPClient *http.Client
}

// Check validates the email, resolves membership, and records a lead.
// It returns the decision and the source that produced it ("allow_all",
// "list", "webhook", or "default").
func (s *AccessService) Check(ctx context.Context, email string) (bool, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRE.MatchString(email) {
		return false, "", ErrInvalidEmail
	}

	allowed, source, err := s.resolve(ctx, email)
	if err != nil {
		return false, "", err
	}

	if _, err := repo.CreateLead(ctx, s.DB, email, allowed, source); err != nil {
		return false, "", fmt.Errorf("access check: record lead: %w", err)
	}
	return allowed, source, nil
}

func (s *AccessService) resolve(ctx context.Context, email string) (bool, string, error) {
	if s.AllowAll {
		return true, "allow_all", nil
	}
	if len(s.AllowList) > 0 {
		for _, m := range s.AllowList {
			if strings.EqualFold(strings.TrimSpace(m), email) {
				return true, "list", nil
			}
		}
		return false, "list", nil
	}
	if s.WebhookURL != "" {
		allowed, err := s.checkWebhook(ctx, email)
		if err != nil {
			return false, "", err
		}
		return allowed, "webhook", nil
	}
	return false, "default", nil
}

// checkWebhook posts the email to the external membership source and reads
// back {"allowed": bool}.
func (s *AccessService) checkWebhook(ctx context.Context, email string) (bool, error) {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("membership webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("membership webhook: status %d", resp.StatusCode)
	}

	var out struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("membership webhook: decode: %w", err)
	}
	return out.Allowed, nil
}
