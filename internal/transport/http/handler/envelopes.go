package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/uandi/couples-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope wraps registration responses.
type RegisterEnvelope struct {
	Message string        `json:"message"`
	Data    *RegisterData `json:"data,omitempty"`
}

type RegisterData struct {
	UserID string `json:"userId"`
}

// LoginEnvelope wraps login responses. Partner is null until the couple links.
type LoginEnvelope struct {
	Token   string       `json:"token"`
	User    *SafeAccount `json:"user"`
	Partner *SafeAccount `json:"partner"`
}

// MeEnvelope wraps current-account responses.
type MeEnvelope struct {
	User    *SafeAccount `json:"user"`
	Partner *SafeAccount `json:"partner"`
}

// SafeAccount is the client-facing account projection. It never carries the
// password hash or the verification token.
type SafeAccount struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	Role           string     `json:"role"`
	IsFirstPartner bool       `json:"is_first_partner"`
	CoupleID       *string    `json:"couple_id"`
	ProfilePic     *string    `json:"profile_pic,omitempty"`
	Verified       bool       `json:"verified"`
}

func toSafeAccount(a *domain.Account) *SafeAccount {
	if a == nil {
		return nil
	}
	return &SafeAccount{
		ID:             a.AccountID,
		Email:          a.Email,
		FirstName:      a.FirstName,
		DateOfBirth:    a.DateOfBirth,
		Gender:         a.Gender,
		Role:           a.Role,
		IsFirstPartner: a.IsFirstPartner,
		CoupleID:       a.CoupleID,
		ProfilePic:     a.ProfilePic,
		Verified:       a.Verified,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
