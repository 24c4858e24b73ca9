package handlers

import (
	"net/http"
	"strings"

	"dispatch-console/internal/domain"
	"dispatch-console/internal/logx"
)

// DispatchHandler serves the dispatch actions: assignment, claims, status
// moves, cancellation, the pull feed and the push suggestion.
type DispatchHandler struct {
	uc     dispatchUsecase
	logger logx.Logger
}

// NewDispatchHandler wires the coordinator into HTTP handlers.
func NewDispatchHandler(logger logx.Logger, uc dispatchUsecase) *DispatchHandler {
	return &DispatchHandler{uc: uc, logger: logger}
}

// Assign handles POST /orders/{id}/assign: a manager pushes an order onto a
// chosen partner.
func (h *DispatchHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(h.logger, w, r); !ok {
		return
	}
	orderID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req assignRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if strings.TrimSpace(req.PartnerID) == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "partner_id required")
		return
	}

	res, err := h.uc.RequestAssignment(r.Context(), orderID, req.PartnerID, domain.ModeManagerPush)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(res))
}

// Claim handles POST /orders/{id}/claim: a partner takes an order from its
// pull feed for itself.
func (h *DispatchHandler) Claim(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePartner(h.logger, w, r)
	if !ok {
		return
	}
	orderID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	res, err := h.uc.RequestAssignment(r.Context(), orderID, caller.PartnerID, domain.ModePartnerPull)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(res))
}

// Advance handles POST /orders/{id}/status: the bound partner moves the order
// along picked -> on_route -> delivered.
func (h *DispatchHandler) Advance(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePartner(h.logger, w, r)
	if !ok {
		return
	}
	orderID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req advanceStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	order, err := h.uc.AdvanceStatus(r.Context(), orderID, caller.PartnerID, req.Status)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(*order))
}

// Cancel handles POST /orders/{id}/cancel. Managers cancel any open order; a
// partner only the order bound to them.
func (h *DispatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(h.logger, w, r)
	if !ok {
		return
	}
	orderID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req cancelOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	order, err := h.uc.CancelOrder(r.Context(), orderID, req.Reason, caller)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(*order))
}

// Feed handles GET /feed: the calling partner's view of claimable orders.
func (h *DispatchHandler) Feed(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePartner(h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.uc.AvailableOrders(r.Context(), caller.PartnerID)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list))
}

// Suggest handles GET /orders/{id}/suggest: the top-ranked partner for a
// manager push. Advisory only.
func (h *DispatchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(h.logger, w, r); !ok {
		return
	}
	orderID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.uc.SuggestPartner(r.Context(), orderID)
	if err != nil {
		writeDispatchError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, partnerToResponse(*p))
}
