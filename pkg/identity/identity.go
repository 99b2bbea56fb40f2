package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Provider defines contract for the external account provider that owns the
// login identities behind our users. Suspend and Restore are keyed by the
// user's external identity string, not by our own IDs.
type Provider interface {
	// Suspend disables the external account so the user can no longer sign in.
	Suspend(ctx context.Context, externalID string) error
	// Restore re-enables a previously suspended external account.
	Restore(ctx context.Context, externalID string) error
}

type httpProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPProvider creates a Provider that talks to the identity service's
// REST admin API using a bearer token.
func NewHTTPProvider(baseURL, token string) Provider {
	return &httpProvider{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *httpProvider) Suspend(ctx context.Context, externalID string) error {
	return p.post(ctx, "suspend", externalID)
}

func (p *httpProvider) Restore(ctx context.Context, externalID string) error {
	return p.post(ctx, "restore", externalID)
}

func (p *httpProvider) post(ctx context.Context, action, externalID string) error {
	body, err := json.Marshal(map[string]string{"identity": externalID})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/admin/accounts/%s", p.baseURL, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider %s failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity provider %s returned status %d", action, resp.StatusCode)
	}

	return nil
}

type noopProvider struct{}

// NewNoopProvider returns a Provider that does nothing. Used when no
// identity service is configured (local development, tests).
func NewNoopProvider() Provider {
	return noopProvider{}
}

func (noopProvider) Suspend(ctx context.Context, externalID string) error { return nil }
func (noopProvider) Restore(ctx context.Context, externalID string) error { return nil }
