package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uandi/couples-api/internal/application/session"
	"github.com/uandi/couples-api/internal/domain"
	jwtinfra "github.com/uandi/couples-api/internal/infrastructure/jwt"
	"github.com/uandi/couples-api/internal/transport/http/middleware"
)

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) Login(ctx context.Context, req session.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionService) Me(ctx context.Context, accountID string) (*domain.Account, *domain.Account, error) {
	args := m.Called(ctx, accountID)
	a, _ := args.Get(0).(*domain.Account)
	p, _ := args.Get(1).(*domain.Account)
	return a, p, args.Error(2)
}

func strPtr(s string) *string { return &s }

func doLogin(svc session.Service, body string) *httptest.ResponseRecorder {
	h := NewSessionHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_InvalidBody_400(t *testing.T) {
	svc := &mockSessionService{}
	rec := doLogin(svc, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestLogin_Success_200(t *testing.T) {
	svc := &mockSessionService{}
	account := &domain.Account{AccountID: "u1", Email: "a@x.com", Role: domain.RoleGirlfriend, Verified: true, CoupleID: strPtr("c1")}
	partner := &domain.Account{AccountID: "u2", Email: "b@x.com", Role: domain.RoleBoyfriend, Verified: true, CoupleID: strPtr("c1")}
	svc.On("Login", mock.Anything, session.LoginRequest{Email: "a@x.com", Password: "secret-pass"}).
		Return(&session.LoginResult{Token: "signed-token", Account: account, Partner: partner}, nil)

	rec := doLogin(svc, `{"email":"a@x.com","password":"secret-pass"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var env LoginEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "signed-token", env.Token)
	require.NotNil(t, env.User)
	assert.Equal(t, "u1", env.User.ID)
	require.NotNil(t, env.Partner)
	assert.Equal(t, "u2", env.Partner.ID)

	// The projection must never leak credentials or tokens.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "verification_token")
}

func TestLogin_NoPartner_PartnerNull(t *testing.T) {
	svc := &mockSessionService{}
	account := &domain.Account{AccountID: "u1", Email: "a@x.com", Role: domain.RoleGirlfriend, Verified: true}
	svc.On("Login", mock.Anything, mock.Anything).
		Return(&session.LoginResult{Token: "signed-token", Account: account}, nil)

	rec := doLogin(svc, `{"email":"a@x.com","password":"secret-pass"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "null", string(payload["partner"]))
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not verified", fmt.Errorf("user is not verified: %w", domain.ErrNotVerified), http.StatusForbidden},
		{"bad credentials", fmt.Errorf("invalid email or password: %w", domain.ErrInvalidCredentials), http.StatusUnauthorized},
		{"validation failure", fmt.Errorf("email required: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{"storage failure", fmt.Errorf("dynamodb unavailable"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSessionService{}
			svc.On("Login", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := doLogin(svc, `{"email":"a@x.com","password":"secret-pass"}`)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func doMe(svc session.Service, claims *jwtinfra.Claims) *httptest.ResponseRecorder {
	h := NewSessionHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if claims != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.ClaimsKey, claims))
	}
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	return rec
}

func TestMe_NoClaims_401(t *testing.T) {
	svc := &mockSessionService{}
	rec := doMe(svc, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

func TestMe_Success_200(t *testing.T) {
	svc := &mockSessionService{}
	account := &domain.Account{AccountID: "u1", Email: "a@x.com", Role: domain.RoleGirlfriend, Verified: true}
	svc.On("Me", mock.Anything, "u1").Return(account, nil, nil)

	rec := doMe(svc, &jwtinfra.Claims{AccountID: "u1", Email: "a@x.com"})

	require.Equal(t, http.StatusOK, rec.Code)
	var env MeEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.User)
	assert.Equal(t, "u1", env.User.ID)
	assert.Nil(t, env.Partner)
}

func TestMe_AccountGone_404(t *testing.T) {
	svc := &mockSessionService{}
	svc.On("Me", mock.Anything, "u1").
		Return(nil, nil, fmt.Errorf("account missing: %w", domain.ErrNotFound))

	rec := doMe(svc, &jwtinfra.Claims{AccountID: "u1"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
