package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

func TestHTTPGateway_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("manager token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/whoami", r.URL.Path)
			require.Equal(t, "Bearer mgr-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"role":"manager"}`))
		}))
		defer srv.Close()

		g := NewHTTPGateway(srv.Client(), srv.URL)
		require.NotNil(t, g)

		caller, err := g.Resolve(context.Background(), "mgr-token")
		require.NoError(t, err)
		require.Equal(t, domain.Caller{Role: domain.RoleManager}, caller)
	})

	t.Run("partner token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"role":"partner","partner_id":"p1"}`))
		}))
		defer srv.Close()

		g := NewHTTPGateway(srv.Client(), srv.URL)
		caller, err := g.Resolve(context.Background(), "tok")
		require.NoError(t, err)
		require.Equal(t, domain.Caller{Role: domain.RolePartner, PartnerID: "p1"}, caller)
	})

	t.Run("partner without id is rejected", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"role":"partner"}`))
		}))
		defer srv.Close()

		g := NewHTTPGateway(srv.Client(), srv.URL)
		_, err := g.Resolve(context.Background(), "tok")
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"role":"janitor"}`))
		}))
		defer srv.Close()

		g := NewHTTPGateway(srv.Client(), srv.URL)
		_, err := g.Resolve(context.Background(), "tok")
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("401 maps to unauthorized", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		g := NewHTTPGateway(srv.Client(), srv.URL)
		_, err := g.Resolve(context.Background(), "expired")
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("5xx surfaces a status error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		g := NewHTTPGateway(srv.Client(), srv.URL)
		_, err := g.Resolve(context.Background(), "tok")
		var se *statusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, http.StatusBadGateway, se.code)
		require.True(t, isRetryable(err))
	})

	t.Run("empty token short-circuits", func(t *testing.T) {
		t.Parallel()
		g := NewHTTPGateway(http.DefaultClient, "http://identity.invalid")
		_, err := g.Resolve(context.Background(), "")
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestStatic_Resolve(t *testing.T) {
	t.Parallel()

	s := NewStatic(map[string]domain.Caller{
		"mgr": {Role: domain.RoleManager},
		"p1":  {Role: domain.RolePartner, PartnerID: "p1"},
	})

	caller, err := s.Resolve(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", caller.PartnerID)

	_, err = s.Resolve(context.Background(), "nope")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
