package handlers

import (
	"net/http"

	"procurement/internal/auth"
	"procurement/internal/httpx"
)

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	session, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	session, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}
