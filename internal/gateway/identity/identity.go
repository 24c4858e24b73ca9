// Package identity resolves request credentials into a caller identity by
// asking the identity collaborator. The dispatch core trusts the result and
// never re-derives who is calling.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

// Resolver turns a bearer token into a caller identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Caller, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPGateway is an identity resolver backed by the identity service's
// HTTP API.
type HTTPGateway struct {
	client  httpDoer
	baseURL string
}

// NewHTTPGateway creates an identity resolver backed by HTTP.
func NewHTTPGateway(client httpDoer, baseURL string) *HTTPGateway {
	if client == nil || baseURL == "" {
		return nil
	}
	return &HTTPGateway{client: client, baseURL: baseURL}
}

type whoamiResponse struct {
	Role      string `json:"role"`
	PartnerID string `json:"partner_id"`
}

// statusError carries the upstream HTTP status so the retry layer can tell
// transient failures from rejections.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity gateway: upstream status %d", e.code)
}

// Resolve asks the identity service who holds the token.
func (g *HTTPGateway) Resolve(ctx context.Context, token string) (domain.Caller, error) {
	if token == "" {
		return domain.Caller{}, apperr.ErrUnauthorized
	}

	u, err := url.JoinPath(g.baseURL, "/v1/whoami")
	if err != nil {
		return domain.Caller{}, fmt.Errorf("identity gateway: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("identity gateway: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("identity gateway: whoami: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Caller{}, apperr.ErrUnauthorized
	default:
		return domain.Caller{}, &statusError{code: resp.StatusCode}
	}

	var body whoamiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Caller{}, fmt.Errorf("identity gateway: decode response: %w", err)
	}

	caller := domain.Caller{Role: domain.Role(body.Role), PartnerID: body.PartnerID}
	switch caller.Role {
	case domain.RoleManager:
	case domain.RolePartner:
		if caller.PartnerID == "" {
			return domain.Caller{}, apperr.ErrUnauthorized
		}
	default:
		return domain.Caller{}, apperr.ErrUnauthorized
	}
	return caller, nil
}

// Static is a resolver with a fixed token table, for database-less runs
// and tests.
type Static struct {
	callers map[string]domain.Caller
}

// NewStatic creates a Static resolver from a token to caller table.
func NewStatic(callers map[string]domain.Caller) *Static {
	return &Static{callers: callers}
}

// Resolve looks the token up in the fixed table.
func (s *Static) Resolve(_ context.Context, token string) (domain.Caller, error) {
	c, ok := s.callers[token]
	if !ok {
		return domain.Caller{}, apperr.ErrUnauthorized
	}
	return c, nil
}
