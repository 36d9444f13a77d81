package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/uandi/couples-api/internal/application/session"
	"github.com/uandi/couples-api/internal/domain"
	"github.com/uandi/couples-api/internal/transport/http/middleware"
)

// SessionHandler handles login and the current-account endpoint.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotVerified):
			// 403 tells clients to prompt for verification, not retype the password.
			writeError(w, http.StatusForbidden, "User is not verified")
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, domain.ErrBadRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Server error during login")
		}
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Token:   result.Token,
		User:    toSafeAccount(result.Account),
		Partner: toSafeAccount(result.Partner),
	})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, partner, err := h.svc.Me(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{
		User:    toSafeAccount(account),
		Partner: toSafeAccount(partner),
	})
}
