package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"procurement/internal/csvimport"
	"procurement/internal/httpx"
	"procurement/models"
)

// CSVUploadHandler parses a multipart "file" field into bid items.
func (h *Handler) CSVUploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "No file provided", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "No file provided", nil)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		httpx.JSONError(w, http.StatusBadRequest, "Only CSV files are supported", nil)
		return
	}

	items, err := csvimport.Parse(file)
	if errors.Is(err, csvimport.ErrNoItems) {
		httpx.JSONError(w, http.StatusBadRequest, "No valid items found in the CSV file", nil)
		return
	}
	if err != nil {
		h.log.Warn("csv upload failed", zap.String("file", header.Filename), zap.Error(err))
		httpx.JSONError(w, http.StatusBadRequest, "Failed to process CSV file", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

const (
	validateBidItems   = "bid_items"
	validateSubmission = "vendor_submission"
)

func (h *Handler) ValidationHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if in.Type == "" || len(in.Data) == 0 || string(in.Data) == "null" {
		httpx.JSONError(w, http.StatusBadRequest, "Type and data are required", nil)
		return
	}

	switch in.Type {
	case validateBidItems:
		var items []models.BidItem
		if err := json.Unmarshal(in.Data, &items); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON format", nil)
			return
		}
		res, err := h.Bids.ValidateItems(r.Context(), items)
		if err != nil {
			httpx.Error(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, res)
	case validateSubmission:
		var sub models.Submission
		if err := json.Unmarshal(in.Data, &sub); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON format", nil)
			return
		}
		res, err := h.Bids.ValidateSubmission(r.Context(), &sub)
		if err != nil {
			httpx.Error(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, res)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "Invalid validation type", nil)
	}
}
