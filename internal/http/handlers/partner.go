package handlers

import (
	"errors"
	"net/http"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/logx"
)

// PartnerHandler serves HTTP endpoints for partner resources.
type PartnerHandler struct {
	roster   rosterUsecase
	dispatch dispatchUsecase
	logger   logx.Logger
}

// NewPartnerHandler wires the roster service and the coordinator into HTTP handlers.
func NewPartnerHandler(logger logx.Logger, roster rosterUsecase, dispatch dispatchUsecase) *PartnerHandler {
	return &PartnerHandler{roster: roster, dispatch: dispatch, logger: logger}
}

// Create handles POST /partners. Manager only.
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(h.logger, w, r); !ok {
		return
	}
	var req createPartnerRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	id, err := h.roster.Create(r.Context(), req.toModel())
	switch {
	case err == nil:
		w.Header().Set("Location", "/partners/"+id)
		writeJSON(h.logger, w, r, http.StatusCreated, map[string]string{"id": id})
	case errors.Is(err, apperr.ErrValidation):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "phone already exists")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// GetByID handles GET /partners/{id}. Manager, or the partner itself.
func (h *PartnerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if _, ok := requireManagerOrSelf(h.logger, w, r, id); !ok {
		return
	}

	p, err := h.roster.Get(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, partnerToResponse(*p))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// List handles GET /partners. Manager only.
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(h.logger, w, r); !ok {
		return
	}
	limitPtr, ok := queryIntPtr(h.logger, w, r, "limit")
	if !ok {
		return
	}
	offsetPtr, ok := queryIntPtr(h.logger, w, r, "offset")
	if !ok {
		return
	}

	list, err := h.roster.List(r.Context(), limitPtr, offsetPtr)
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, partnersToResponse(list))
}

// Update handles PATCH /partners/{id} with partial profile updates.
// Manager, or the partner itself.
func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if _, ok := requireManagerOrSelf(h.logger, w, r, id); !ok {
		return
	}
	var req updatePartnerRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	_, err := h.roster.UpdatePartial(r.Context(), req.toModel(id))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, apperr.ErrValidation):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "phone already exists")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// ToggleAvailability handles POST /partners/{id}/availability.
// Manager, or the partner itself; busy cannot be requested.
func (h *PartnerHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if _, ok := requireManagerOrSelf(h.logger, w, r, id); !ok {
		return
	}
	var req toggleAvailabilityRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.dispatch.ToggleAvailability(r.Context(), id, req.Availability)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, partnerToResponse(*p))
}
