package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/auth"
	"procurement/internal/logger"
	"procurement/models"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 5 << 20
)

// Handler wires HTTP requests to the bid and account services.
type Handler struct {
	Bids  BidService
	Auth  AuthService
	Links VendorLinks
	log   *zap.Logger
}

func NewHandler(bids BidService, accounts AuthService, links VendorLinks) *Handler {
	return &Handler{
		Bids:  bids,
		Auth:  accounts,
		Links: links,
		log:   logger.WithModule("handlers"),
	}
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Validation("Failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("Invalid JSON format")
	}
	return nil
}

func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("Invalid %s", name)
	}
	return id, nil
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams reads limit and offset, falling back to 5 and 0.
func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 5}

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 50 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	return params
}

// identity is set by auth.RequireSession on every buyer route.
func identity(r *http.Request) models.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}
