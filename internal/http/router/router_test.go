package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/gateway/identity"
	"dispatch-console/internal/http/handlers"
	mw "dispatch-console/internal/http/middleware"
	"dispatch-console/internal/http/middleware/ratelimit"
	"dispatch-console/internal/http/router"
	"dispatch-console/internal/logx"
	"dispatch-console/internal/repository/inmem"
	"dispatch-console/internal/service/dispatch"
	"dispatch-console/internal/service/orders"
	"dispatch-console/internal/service/partner"
	"dispatch-console/internal/service/policy"
)

// inmemOrderReader adapts the in-memory store's console reads to the order
// service's repository contract.
type inmemOrderReader struct {
	s *inmem.Store
}

func (r inmemOrderReader) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.s.GetOrder(ctx, id)
}

func (r inmemOrderReader) List(ctx context.Context, status *domain.OrderStatus, limit, offset *int) ([]domain.Order, error) {
	return r.s.ListOrders(ctx, status, limit, offset)
}

// newTestServer assembles the full HTTP surface over the in-memory store with
// two fixed tokens: "tok-mgr" (manager) and "tok-p1" (partner p1).
func newTestServer(t *testing.T) (*httptest.Server, *inmem.Store) {
	t.Helper()

	store := inmem.New()
	logger := logx.Nop()
	broker := broadcast.New(8, logger, nil, nil, nil)
	t.Cleanup(broker.Close)

	coord := dispatch.NewCoordinator(store, policy.New(0), broker,
		dispatch.Config{}, nopCounter{}, nopCounter{}, logger)

	resolver := identity.NewStatic(map[string]domain.Caller{
		"tok-mgr": {Role: domain.RoleManager},
		"tok-p1":  {Role: domain.RolePartner, PartnerID: "p1"},
	})

	h := router.New(router.Deps{
		Logger:    logger,
		Base:      handlers.New(logger),
		Orders:    handlers.NewOrderHandler(logger, handlers.NewOrderQuery(orders.NewService(inmemOrderReader{store}, time.Second)), handlers.NewDispatchUsecase(coord)),
		Partners:  handlers.NewPartnerHandler(logger, handlers.NewRosterUsecase(partner.NewService(store, time.Second)), handlers.NewDispatchUsecase(coord)),
		Dispatch:  handlers.NewDispatchHandler(logger, handlers.NewDispatchUsecase(coord)),
		Events:    handlers.NewEventsHandler(logger, handlers.NewEventSource(broker)),
		Auth:      mw.NewAuthenticator(resolver, logger),
		RateLimit: ratelimit.New(logger, nil, ratelimit.NopLimiter{}),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store
}

type nopCounter struct{}

func (nopCounter) Inc() {}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouter_PublicEndpoints(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/ping", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/no-such-route", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_AuthRequired(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/orders", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/feed", "bogus", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_PartnerRegistration(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/partners", "tok-mgr",
		`{"name":"Pasha","phone":"+79991112233","vehicle":"bike"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "/partners/"+created.ID, resp.Header.Get("Location"))

	// the token maps to partner p1, which is not in the roster
	resp = do(t, http.MethodGet, srv.URL+"/feed", "tok-p1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ClaimFlow(t *testing.T) {
	t.Parallel()
	srv, store := newTestServer(t)

	require.NoError(t, store.Create(context.Background(), &domain.Partner{
		ID: "p1", Name: "Pasha", Phone: "+79991112233",
		Availability: domain.AvailabilityAvailable,
	}))

	resp := do(t, http.MethodPost, srv.URL+"/orders", "tok-mgr", `{
		"items":[{"name":"ramen","quantity":1,"unit_price":"14.00"}],
		"customer":{"name":"Oleg","phone":"+79990001122","address":"Tverskaya 1"},
		"prep_time_minutes":20
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	// the order shows in the partner's feed
	resp = do(t, http.MethodGet, srv.URL+"/feed", "tok-p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	require.Len(t, feed, 1)
	require.Equal(t, created.ID, feed[0].ID)

	// partner claims it
	resp = do(t, http.MethodPost, srv.URL+"/orders/"+created.ID+"/claim", "tok-p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// second claim loses deterministically
	resp = do(t, http.MethodPost, srv.URL+"/orders/"+created.ID+"/claim", "tok-p1", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// bound partner advances to delivered
	for _, status := range []string{"on_route", "delivered"} {
		resp = do(t, http.MethodPost, srv.URL+"/orders/"+created.ID+"/status", "tok-p1",
			`{"status":"`+status+`"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, "advance to %s", status)
	}

	// manager sees the delivered order
	resp = do(t, http.MethodGet, srv.URL+"/orders/"+created.ID, "tok-mgr", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "delivered", got.Status)
}

func TestRouter_RoleGuards(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	// partner cannot create orders
	resp := do(t, http.MethodPost, srv.URL+"/orders", "tok-p1", `{}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// manager has no claim identity
	resp = do(t, http.MethodPost, srv.URL+"/orders/any/claim", "tok-mgr", "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
