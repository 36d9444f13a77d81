package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uandi/couples-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountStore) FindPartner(ctx context.Context, coupleID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, coupleID, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(accountID, email string) (string, error) {
	args := m.Called(accountID, email)
	return args.String(0), args.Error(1)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func strPtr(s string) *string { return &s }

func verifiedAccount(t *testing.T) *domain.Account {
	return &domain.Account{
		AccountID:    "u1",
		Email:        "a@x.com",
		PasswordHash: hashOf(t, "secret-pass"),
		FirstName:    "Ada",
		Role:         domain.RoleGirlfriend,
		Verified:     true,
	}
}

func TestLogin_MissingPassword_BadRequest(t *testing.T) {
	svc := NewService(ServiceDeps{AccountRepo: &mockAccountStore{}, JWTProvider: &mockSigner{}})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestLogin_UnknownEmail_InvalidCredentials(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "nobody@x.com").
		Return(nil, fmt.Errorf("account missing: %w", domain.ErrNotFound))

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: &mockSigner{}})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@x.com", Password: "whatever"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLogin_UnverifiedAccount_NotVerified(t *testing.T) {
	as := &mockAccountStore{}
	a := verifiedAccount(t)
	a.Verified = false
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(a, nil)

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: &mockSigner{}})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "secret-pass"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotVerified))
}

func TestLogin_WrongPassword_InvalidCredentials(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(verifiedAccount(t), nil)

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: &mockSigner{}})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLogin_HappyPath_NoPartner(t *testing.T) {
	as := &mockAccountStore{}
	sg := &mockSigner{}
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(verifiedAccount(t), nil)
	sg.On("Sign", "u1", "a@x.com").Return("signed-token", nil)

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: sg})
	res, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "secret-pass"})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	assert.Equal(t, "u1", res.Account.AccountID)
	assert.Nil(t, res.Partner)
	as.AssertNotCalled(t, "FindPartner", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_HappyPath_WithPartner(t *testing.T) {
	as := &mockAccountStore{}
	sg := &mockSigner{}
	a := verifiedAccount(t)
	a.CoupleID = strPtr("c1")
	partner := &domain.Account{AccountID: "u2", Email: "b@x.com", Role: domain.RoleBoyfriend, Verified: true}
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(a, nil)
	as.On("FindPartner", mock.Anything, "c1", "u1").Return(partner, nil)
	sg.On("Sign", "u1", "a@x.com").Return("signed-token", nil)

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: sg})
	res, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "secret-pass"})

	require.NoError(t, err)
	require.NotNil(t, res.Partner)
	assert.Equal(t, "u2", res.Partner.AccountID)
}

func TestLogin_PartnerNotYetRegistered_PartnerNil(t *testing.T) {
	as := &mockAccountStore{}
	sg := &mockSigner{}
	a := verifiedAccount(t)
	a.CoupleID = strPtr("c1")
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(a, nil)
	as.On("FindPartner", mock.Anything, "c1", "u1").
		Return(nil, fmt.Errorf("partner missing: %w", domain.ErrNotFound))
	sg.On("Sign", "u1", "a@x.com").Return("signed-token", nil)

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: sg})
	res, err := svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "secret-pass"})

	require.NoError(t, err)
	assert.Nil(t, res.Partner)
}

func TestMe_ReturnsAccountAndPartner(t *testing.T) {
	as := &mockAccountStore{}
	a := verifiedAccount(t)
	a.CoupleID = strPtr("c1")
	partner := &domain.Account{AccountID: "u2", Role: domain.RoleBoyfriend}
	as.On("Get", mock.Anything, "u1").Return(a, nil)
	as.On("FindPartner", mock.Anything, "c1", "u1").Return(partner, nil)

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: &mockSigner{}})
	got, gotPartner, err := svc.Me(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "u1", got.AccountID)
	require.NotNil(t, gotPartner)
	assert.Equal(t, "u2", gotPartner.AccountID)
}

func TestMe_UnknownAccount_Error(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "missing").
		Return(nil, fmt.Errorf("account missing: %w", domain.ErrNotFound))

	svc := NewService(ServiceDeps{AccountRepo: as, JWTProvider: &mockSigner{}})
	_, _, err := svc.Me(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
