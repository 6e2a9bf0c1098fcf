package handlers

import (
	"net/http"

	"procurement/internal/httpx"
	"procurement/models"
)

func (h *Handler) ListVendorsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.VendorFilter{
		Tier:          q.Get("tier"),
		MaterialClass: q.Get("materialClass"),
		Location:      q.Get("location"),
		Search:        q.Get("q"),
	}
	vendors, err := h.Bids.ListVendors(r.Context(), identity(r), filter)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"vendors": vendors})
}

func (h *Handler) CreateVendorHandler(w http.ResponseWriter, r *http.Request) {
	var v models.Vendor
	if err := decodeJSON(w, r, &v); err != nil {
		httpx.Error(w, r, err)
		return
	}
	created, err := h.Bids.CreateVendor(r.Context(), identity(r), v)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"vendor": created})
}

func (h *Handler) SetMaterialClassesHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := urlID(r, "vendorId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in struct {
		MaterialClasses []string `json:"materialClasses"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	v, err := h.Bids.SetMaterialClasses(r.Context(), identity(r), vendorID, in.MaterialClasses)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"vendor": v})
}

func (h *Handler) VendorMaterialClassesHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := urlID(r, "vendorId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	classes, err := h.Bids.VendorMaterialClasses(r.Context(), identity(r), vendorID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"materialClasses": classes})
}

// MaterialClassesHandler lists the tags in use across the buyer's vendors.
func (h *Handler) MaterialClassesHandler(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Bids.ListMaterialClasses(r.Context(), identity(r))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"materialClasses": classes})
}
