package handlers

import (
	"net/http"

	"procurement/internal/apperr"
	"procurement/internal/bidding"
	"procurement/internal/httpx"
)

// vendorFromLink resolves the vendor behind the ?token= of a submission link.
func (h *Handler) vendorFromLink(r *http.Request) (bidID, vendorID int, err error) {
	bidID, err = urlID(r, "bidId")
	if err != nil {
		return 0, 0, err
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		return 0, 0, apperr.ErrUnauthenticated.WithMessage("Access token is required")
	}
	vendorID, err = h.Links.ParseVendorToken(token, bidID)
	if err != nil {
		return 0, 0, apperr.ErrUnauthenticated.WithMessage("Invalid or expired access link").WithInternal(err)
	}
	return bidID, vendorID, nil
}

func (h *Handler) VendorBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, vendorID, err := h.vendorFromLink(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	view, err := h.Bids.GetBidForVendor(r.Context(), bidID, vendorID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) SubmitResponseHandler(w http.ResponseWriter, r *http.Request) {
	bidID, vendorID, err := h.vendorFromLink(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in bidding.SubmissionInput
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}

	sub, err := h.Bids.SubmitResponse(r.Context(), bidID, vendorID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"message":    "Your response has been submitted successfully",
		"submission": sub,
	})
}
