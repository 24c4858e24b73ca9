package handlers

import (
	"errors"
	"net/http"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/http/middleware"
	"dispatch-console/internal/logx"
)

// writeDispatchError maps coordinator errors to HTTP statuses. Losing the
// assignment race is a 409 distinct from plain bad input: the client is
// expected to refresh its feed, not fix its request.
func writeDispatchError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeError(logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrAlreadyAssigned):
		writeError(logger, w, r, http.StatusConflict, "order already taken")
	case errors.Is(err, apperr.ErrPartnerNotAvailable):
		writeError(logger, w, r, http.StatusConflict, "partner not available")
	case errors.Is(err, apperr.ErrStaleTransition):
		writeError(logger, w, r, http.StatusConflict, "order already moved past requested status")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(logger, w, r, http.StatusConflict, "invalid status transition")
	case errors.Is(err, apperr.ErrNotAssignedPartner):
		writeError(logger, w, r, http.StatusForbidden, "not the assigned partner")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrStorageConflict):
		writeError(logger, w, r, http.StatusServiceUnavailable, "contention, retry")
	default:
		writeError(logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

func callerFrom(logger logx.Logger, w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	c, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(logger, w, r, http.StatusUnauthorized, "unauthorized")
		return domain.Caller{}, false
	}
	return c, true
}

func requireManager(logger logx.Logger, w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	c, ok := callerFrom(logger, w, r)
	if !ok {
		return domain.Caller{}, false
	}
	if !c.IsManager() {
		writeError(logger, w, r, http.StatusForbidden, "manager role required")
		return domain.Caller{}, false
	}
	return c, true
}

func requirePartner(logger logx.Logger, w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	c, ok := callerFrom(logger, w, r)
	if !ok {
		return domain.Caller{}, false
	}
	if c.Role != domain.RolePartner || c.PartnerID == "" {
		writeError(logger, w, r, http.StatusForbidden, "partner role required")
		return domain.Caller{}, false
	}
	return c, true
}

func requireManagerOrSelf(logger logx.Logger, w http.ResponseWriter, r *http.Request, partnerID string) (domain.Caller, bool) {
	c, ok := callerFrom(logger, w, r)
	if !ok {
		return domain.Caller{}, false
	}
	if !c.IsManager() && c.PartnerID != partnerID {
		writeError(logger, w, r, http.StatusForbidden, "forbidden")
		return domain.Caller{}, false
	}
	return c, true
}
