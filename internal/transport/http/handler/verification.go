package handler

import (
	"errors"
	"net/http"

	"github.com/uandi/couples-api/internal/application/pairing"
	"github.com/uandi/couples-api/internal/domain"
)

// VerificationHandler handles email verification links.
type VerificationHandler struct {
	svc pairing.Service
}

func NewVerificationHandler(svc pairing.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// Verify consumes the userId and token query parameters carried by the emailed
// link. Repeating a successful verification answers 200 "already verified".
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	token := r.URL.Query().Get("token")
	if userID == "" || token == "" {
		writeError(w, http.StatusBadRequest, "userId and token are required")
		return
	}
	res, err := h.svc.Verify(r.Context(), userID, token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrInvalidToken),
			errors.Is(err, domain.ErrTokenExpired):
			writeError(w, http.StatusBadRequest, "Verification failed: "+err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Verification failed: "+err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: res.Message})
}
