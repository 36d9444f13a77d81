package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/uandi/couples-api/internal/application/pairing"
	"github.com/uandi/couples-api/internal/domain"
)

// RegistrationHandler handles account registration.
type RegistrationHandler struct {
	svc pairing.Service
}

func NewRegistrationHandler(svc pairing.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInvitation):
			writeError(w, http.StatusBadRequest, "Invalid or expired invitation code.")
		case errors.Is(err, domain.ErrBadRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrRoleConflict), errors.Is(err, domain.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Server error during registration")
		}
		return
	}
	writeJSON(w, http.StatusOK, RegisterEnvelope{
		Message: "Registration successful. Check your email to verify.",
		Data:    &RegisterData{UserID: userID},
	})
}
