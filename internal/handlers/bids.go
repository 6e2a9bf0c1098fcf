package handlers

import (
	"net/http"
	"time"

	"procurement/internal/bidding"
	"procurement/internal/comparison"
	"procurement/internal/httpx"
)

func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	var in bidding.CreateBidInput
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}

	bid, err := h.Bids.CreateBid(r.Context(), identity(r), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "bid": bid})
}

func (h *Handler) ListBidsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	bids, err := h.Bids.ListBids(r.Context(), identity(r), params.Limit, params.Offset)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bids": bids})
}

func (h *Handler) GetBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	bid, err := h.Bids.GetBid(r.Context(), identity(r), bidID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bid": bid})
}

func (h *Handler) DeleteBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.Bids.DeleteBid(r.Context(), identity(r), bidID); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) UpdateBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in bidding.UpdateBidInput
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}

	bid, err := h.Bids.UpdateBid(r.Context(), identity(r), bidID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "bid": bid})
}

func (h *Handler) ExtendBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in struct {
		DueDate time.Time `json:"newDueDate"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if in.DueDate.IsZero() {
		httpx.JSONError(w, http.StatusBadRequest, "New due date is required", nil)
		return
	}

	bid, err := h.Bids.ExtendDueDate(r.Context(), identity(r), bidID, in.DueDate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "bid": bid})
}

func (h *Handler) RemindHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.Bids.SendReminders(r.Context(), identity(r), bidID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": res.Message, "count": res.Count})
}

func (h *Handler) ListBidVendorsHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	vendors, err := h.Bids.ListBidVendors(r.Context(), identity(r), bidID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendors)
}

func (h *Handler) AddBidVendorsHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in struct {
		VendorIDs []int `json:"vendorIds"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}

	bid, err := h.Bids.AddVendors(r.Context(), identity(r), bidID, in.VendorIDs)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "vendors": bid.Invitations})
}

func (h *Handler) CompareHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := urlID(r, "bidId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	opts, err := comparison.ParseOptions(q.Get("vendor"), q.Get("sort"), q.Get("order"), q.Get("q"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "Invalid vendor filter", nil)
		return
	}

	table, err := h.Bids.Compare(r.Context(), identity(r), bidID, opts)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"responseSummary": table.Summary.String(),
		"table":           table,
	})
}
