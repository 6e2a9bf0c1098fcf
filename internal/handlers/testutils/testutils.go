package testutils

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"procurement/internal/auth"
	"procurement/models"
)

// WithChiURLParams sets chi path parameters on a request for handler tests.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// WithIdentity attaches the caller identity that auth.RequireSession would set.
func WithIdentity(req *http.Request, id models.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

// Buyer is the identity used by buyer route tests.
func Buyer() models.Identity {
	return models.Identity{UserID: 1, Email: "buyer@example.com", Role: models.RoleBuyer, CompanyName: "Acme"}
}
