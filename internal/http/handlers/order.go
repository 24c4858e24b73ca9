package handlers

import (
	"errors"
	"net/http"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/logx"
)

// OrderHandler serves HTTP endpoints for order resources.
type OrderHandler struct {
	query    orderQuery
	dispatch dispatchUsecase
	logger   logx.Logger
}

// NewOrderHandler wires the order read side and the coordinator into HTTP handlers.
func NewOrderHandler(logger logx.Logger, query orderQuery, dispatch dispatchUsecase) *OrderHandler {
	return &OrderHandler{query: query, dispatch: dispatch, logger: logger}
}

// Create handles POST /orders. Manager only.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(h.logger, w, r); !ok {
		return
	}
	var req createOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	order, err := h.dispatch.CreateOrder(r.Context(), req.toInput())
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/orders/"+order.ID)
	writeJSON(h.logger, w, r, http.StatusCreated, orderToResponse(*order))
}

// GetByID handles GET /orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(h.logger, w, r); !ok {
		return
	}
	id, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	o, err := h.query.Get(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(*o))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrValidation):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// List handles GET /orders. Manager only.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(h.logger, w, r); !ok {
		return
	}

	var statusPtr *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.OrderStatus(s)
		if !st.Valid() {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid status")
			return
		}
		statusPtr = &st
	}
	limitPtr, ok := queryIntPtr(h.logger, w, r, "limit")
	if !ok {
		return
	}
	offsetPtr, ok := queryIntPtr(h.logger, w, r, "offset")
	if !ok {
		return
	}

	list, err := h.query.List(r.Context(), statusPtr, limitPtr, offsetPtr)
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list))
}
