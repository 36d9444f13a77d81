package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/uandi/couples-api/internal/domain"
	"github.com/uandi/couples-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token   string
	Account *domain.Account
	Partner *domain.Account // nil when the account has no linked partner yet
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	// Me returns the account and its partner (nil when unpaired).
	Me(ctx context.Context, accountID string) (*domain.Account, *domain.Account, error)
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindPartner(ctx context.Context, coupleID, accountID string) (*domain.Account, error)
}

type jwtSigner interface {
	Sign(accountID, email string) (string, error)
}

type service struct {
	accounts    accountStore
	jwtProvider jwtSigner
}

type ServiceDeps struct {
	AccountRepo accountStore
	JWTProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{accounts: deps.AccountRepo, jwtProvider: deps.JWTProvider}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", domain.ErrInvalidCredentials)
		}
		return nil, err
	}
	// Distinct from bad credentials so clients can prompt for verification.
	if !a.Verified {
		return nil, fmt.Errorf("user is not verified: %w", domain.ErrNotVerified)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrInvalidCredentials)
	}

	token, err := s.jwtProvider.Sign(a.AccountID, a.Email)
	if err != nil {
		return nil, err
	}

	partner, err := s.partnerOf(ctx, a)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Account: a, Partner: partner}, nil
}

func (s *service) Me(ctx context.Context, accountID string) (*domain.Account, *domain.Account, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	partner, err := s.partnerOf(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	return a, partner, nil
}

func (s *service) partnerOf(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	if a.CoupleID == nil {
		return nil, nil
	}
	partner, err := s.accounts.FindPartner(ctx, *a.CoupleID, a.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return partner, nil
}
