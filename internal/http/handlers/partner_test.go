package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/http/handlers"
	"dispatch-console/internal/logx"
)

type stubRosterUsecase struct {
	getFn           func(ctx context.Context, id string) (*domain.Partner, error)
	listFn          func(ctx context.Context, limit, offset *int) ([]domain.Partner, error)
	createFn        func(ctx context.Context, p *domain.Partner) (string, error)
	updatePartialFn func(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error)
}

func (s *stubRosterUsecase) Get(ctx context.Context, id string) (*domain.Partner, error) {
	return s.getFn(ctx, id)
}

func (s *stubRosterUsecase) List(ctx context.Context, limit, offset *int) ([]domain.Partner, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *stubRosterUsecase) Create(ctx context.Context, p *domain.Partner) (string, error) {
	return s.createFn(ctx, p)
}

func (s *stubRosterUsecase) UpdatePartial(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error) {
	return s.updatePartialFn(ctx, u)
}

func TestPartnerHandler_Create_OK(t *testing.T) {
	t.Parallel()

	roster := &stubRosterUsecase{
		createFn: func(_ context.Context, p *domain.Partner) (string, error) {
			require.Equal(t, "Igor", p.Name)
			require.Equal(t, "+79990001122", p.Phone)
			require.Equal(t, "bike", p.Vehicle)
			return "p1", nil
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), roster, &stubDispatchUsecase{})

	body := `{"name":"Igor","phone":"+79990001122","vehicle":"bike"}`
	req := asManager(httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(body)))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/partners/p1", rr.Header().Get("Location"))

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "p1", resp["id"])
}

func TestPartnerHandler_Create_DuplicatePhone(t *testing.T) {
	t.Parallel()

	roster := &stubRosterUsecase{
		createFn: func(context.Context, *domain.Partner) (string, error) {
			return "", apperr.ErrConflict
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), roster, &stubDispatchUsecase{})

	body := `{"name":"Igor","phone":"+79990001122"}`
	req := asManager(httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(body)))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "phone already exists", errBody(t, rr))
}

func TestPartnerHandler_Create_PartnerForbidden(t *testing.T) {
	t.Parallel()

	h := handlers.NewPartnerHandler(logx.Nop(), &stubRosterUsecase{}, &stubDispatchUsecase{})

	req := asPartner(httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(`{}`)), "p1")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPartnerHandler_GetByID_SelfAllowed(t *testing.T) {
	t.Parallel()

	roster := &stubRosterUsecase{
		getFn: func(_ context.Context, id string) (*domain.Partner, error) {
			return &domain.Partner{ID: id, Name: "Igor", Availability: domain.AvailabilityAvailable}, nil
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), roster, &stubDispatchUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/partners/p1", nil)
	req = withURLParam(asPartner(req, "p1"), "id", "p1")
	rr := httptest.NewRecorder()

	h.GetByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestPartnerHandler_GetByID_OtherPartnerForbidden(t *testing.T) {
	t.Parallel()

	h := handlers.NewPartnerHandler(logx.Nop(), &stubRosterUsecase{}, &stubDispatchUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/partners/p2", nil)
	req = withURLParam(asPartner(req, "p1"), "id", "p2")
	rr := httptest.NewRecorder()

	h.GetByID(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPartnerHandler_List_ManagerOnly(t *testing.T) {
	t.Parallel()

	roster := &stubRosterUsecase{
		listFn: func(context.Context, *int, *int) ([]domain.Partner, error) {
			return []domain.Partner{{ID: "p1"}, {ID: "p2"}}, nil
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), roster, &stubDispatchUsecase{})

	rr := httptest.NewRecorder()
	h.List(rr, asManager(httptest.NewRequest(http.MethodGet, "/partners", nil)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.List(rr, asPartner(httptest.NewRequest(http.MethodGet, "/partners", nil), "p1"))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPartnerHandler_Update_Self(t *testing.T) {
	t.Parallel()

	roster := &stubRosterUsecase{
		updatePartialFn: func(_ context.Context, u domain.PartialPartnerUpdate) (bool, error) {
			require.Equal(t, "p1", u.ID)
			require.NotNil(t, u.Name)
			require.Equal(t, "New Name", *u.Name)
			require.Nil(t, u.Phone)
			return true, nil
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), roster, &stubDispatchUsecase{})

	req := httptest.NewRequest(http.MethodPatch, "/partners/p1",
		strings.NewReader(`{"name":"New Name"}`))
	req = withURLParam(asPartner(req, "p1"), "id", "p1")
	rr := httptest.NewRecorder()

	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestPartnerHandler_Update_NotFound(t *testing.T) {
	t.Parallel()

	roster := &stubRosterUsecase{
		updatePartialFn: func(context.Context, domain.PartialPartnerUpdate) (bool, error) {
			return false, apperr.ErrNotFound
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), roster, &stubDispatchUsecase{})

	req := httptest.NewRequest(http.MethodPatch, "/partners/ghost",
		strings.NewReader(`{"name":"x"}`))
	req = withURLParam(asManager(req), "id", "ghost")
	rr := httptest.NewRecorder()

	h.Update(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPartnerHandler_ToggleAvailability_RoutesThroughDispatch(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		toggleAvailabilityFn: func(_ context.Context, partnerID string, target domain.PartnerAvailability) (*domain.Partner, error) {
			require.Equal(t, "p1", partnerID)
			require.Equal(t, domain.AvailabilityAvailable, target)
			return &domain.Partner{ID: partnerID, Availability: target}, nil
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), &stubRosterUsecase{}, uc)

	req := httptest.NewRequest(http.MethodPost, "/partners/p1/availability",
		strings.NewReader(`{"availability":"available"}`))
	req = withURLParam(asPartner(req, "p1"), "id", "p1")
	rr := httptest.NewRecorder()

	h.ToggleAvailability(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Availability string `json:"availability"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "available", resp.Availability)
}

func TestPartnerHandler_ToggleAvailability_BusyDuringDelivery(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		toggleAvailabilityFn: func(context.Context, string, domain.PartnerAvailability) (*domain.Partner, error) {
			return nil, apperr.ErrInvalidTransition
		},
	}
	h := handlers.NewPartnerHandler(logx.Nop(), &stubRosterUsecase{}, uc)

	req := httptest.NewRequest(http.MethodPost, "/partners/p1/availability",
		strings.NewReader(`{"availability":"offline"}`))
	req = withURLParam(asPartner(req, "p1"), "id", "p1")
	rr := httptest.NewRecorder()

	h.ToggleAvailability(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}
