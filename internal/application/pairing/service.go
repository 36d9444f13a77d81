package pairing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uandi/couples-api/internal/domain"
	"github.com/uandi/couples-api/internal/infrastructure/smtp"
	"github.com/uandi/couples-api/internal/pkg/id"
	pkgtoken "github.com/uandi/couples-api/internal/pkg/token"
	"github.com/uandi/couples-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// inviteCodeAttempts bounds retries when a freshly drawn 6-digit code collides
// with one already held by a pending couple.
const inviteCodeAttempts = 3

// VerifyResult is the outcome of a successful (or idempotent) verification.
type VerifyResult struct {
	Message         string
	AlreadyVerified bool
}

type Service interface {
	// Register creates an unverified account and sends the verification email.
	// Returns the new account id.
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	// Verify consumes a verification token, marking the account verified and
	// advancing couple state as a side effect. Idempotent: verifying an
	// already-verified account succeeds.
	Verify(ctx context.Context, accountID, token string) (*VerifyResult, error)
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	FindFirstPartner(ctx context.Context, coupleID string) (*domain.Account, error)
}

type coupleStore interface {
	Get(ctx context.Context, coupleID string) (*domain.Couple, error)
	GetPendingByInvitation(ctx context.Context, code string) (*domain.Couple, error)
}

// pairingStore is the transactional write surface. Each method commits all its
// rows atomically or returns a sentinel-wrapped error describing which
// condition failed.
type pairingStore interface {
	CreateAccount(ctx context.Context, a *domain.Account, invitationToken string) error
	MarkVerified(ctx context.Context, accountID, verificationToken string) error
	VerifyAndCreateCouple(ctx context.Context, accountID, verificationToken string, c *domain.Couple) error
	VerifyAndCompleteCouple(ctx context.Context, accountID, verificationToken string, c *domain.Couple) error
}

type service struct {
	accounts        accountStore
	couples         coupleStore
	pairing         pairingStore
	mailer          smtp.Mailer
	appURL          string
	verificationTTL time.Duration
}

type ServiceDeps struct {
	AccountRepo     accountStore
	CoupleRepo      coupleStore
	PairingRepo     pairingStore
	Mailer          smtp.Mailer
	AppURL          string
	VerificationTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:        deps.AccountRepo,
		couples:         deps.CoupleRepo,
		pairing:         deps.PairingRepo,
		mailer:          deps.Mailer,
		appURL:          deps.AppURL,
		verificationTTL: deps.VerificationTTL,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return "", fmt.Errorf("date_of_birth must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		dob = &t
	}

	// Second partner: resolve the invitation to a pending couple and enforce
	// role complementarity against the first partner before inserting anything.
	var coupleID *string
	var invitationToken string
	if !req.IsFirstPartner {
		if req.InvitationToken == "" {
			return "", fmt.Errorf("invitation_token is required for the second partner: %w", domain.ErrBadRequest)
		}
		c, err := s.couples.GetPendingByInvitation(ctx, req.InvitationToken)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", fmt.Errorf("invalid or expired invitation code: %w", domain.ErrInvalidInvitation)
			}
			return "", err
		}
		first, err := s.accounts.FindFirstPartner(ctx, c.CoupleID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		if err == nil && first.Role == req.Role {
			return "", fmt.Errorf("role %s is already taken by your partner: %w", req.Role, domain.ErrRoleConflict)
		}
		coupleID = &c.CoupleID
		invitationToken = c.InvitationToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	verificationToken, err := pkgtoken.NewVerificationToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.verificationTTL)
	a := &domain.Account{
		AccountID:             id.New(),
		Email:                 req.Email,
		PasswordHash:          string(hash),
		FirstName:             req.FirstName,
		DateOfBirth:           dob,
		Gender:                req.Gender,
		Role:                  req.Role,
		IsFirstPartner:        req.IsFirstPartner,
		CoupleID:              coupleID,
		VerificationToken:     &verificationToken,
		VerificationExpiresAt: &expiresAt,
		CreatedAt:             now,
	}

	if err := s.pairing.CreateAccount(ctx, a, invitationToken); err != nil {
		return "", err
	}

	// Registration succeeded once the rows committed; the email is best-effort.
	verifyURL := fmt.Sprintf("%s/api/verify?userId=%s&token=%s", s.appURL, a.AccountID, verificationToken)
	body := fmt.Sprintf("<h2>Welcome to U&I!</h2><p>Please click the link below to verify your email:</p><a href=%q>Verify Email</a>", verifyURL)
	if err := s.mailer.SendEmail(a.Email, "U&I - Verify Your Email", body); err != nil {
		slog.Warn("verification email not sent", "account_id", a.AccountID, "err", err)
	}

	return a.AccountID, nil
}

func (s *service) Verify(ctx context.Context, accountID, token string) (*VerifyResult, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Verified {
		return &VerifyResult{Message: "Email already verified", AlreadyVerified: true}, nil
	}
	if a.VerificationToken == nil || *a.VerificationToken != token {
		return nil, fmt.Errorf("verification token mismatch: %w", domain.ErrInvalidToken)
	}
	if a.VerificationExpiresAt != nil && a.VerificationExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("verification token expired: %w", domain.ErrTokenExpired)
	}

	switch {
	case a.IsFirstPartner && a.CoupleID == nil:
		c, err := s.createCouple(ctx, a.AccountID, token)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidToken) {
				return s.recheck(ctx, accountID)
			}
			return nil, err
		}
		if err := s.mailer.SendEmail(a.Email, "U&I - Partner Invitation Code", "Your invitation code: "+c.InvitationToken); err != nil {
			slog.Warn("invitation code email not sent", "account_id", a.AccountID, "err", err)
		}
		return &VerifyResult{Message: fmt.Sprintf("Verification complete. Invitation code sent to %s", a.Email)}, nil

	case !a.IsFirstPartner && a.CoupleID != nil:
		c, err := s.couples.Get(ctx, *a.CoupleID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("couple %s missing: %w", *a.CoupleID, domain.ErrPairingFailed)
			}
			return nil, err
		}
		if err := s.pairing.VerifyAndCompleteCouple(ctx, a.AccountID, token, c); err != nil {
			if errors.Is(err, domain.ErrInvalidToken) {
				return s.recheck(ctx, accountID)
			}
			return nil, err
		}
		return &VerifyResult{Message: "Couple verification completed successfully"}, nil

	default:
		// First partner already paired, or second partner without a couple:
		// nothing to do on the couple side.
		if err := s.pairing.MarkVerified(ctx, a.AccountID, token); err != nil {
			if errors.Is(err, domain.ErrInvalidToken) {
				return s.recheck(ctx, accountID)
			}
			return nil, err
		}
		return &VerifyResult{Message: "Email verification completed"}, nil
	}
}

// createCouple inserts the pending couple for a first partner, drawing a fresh
// invitation code when the previous one is already held by a pending couple.
func (s *service) createCouple(ctx context.Context, accountID, verificationToken string) (*domain.Couple, error) {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := pkgtoken.NewInvitationCode()
		if err != nil {
			return nil, err
		}
		c := &domain.Couple{
			CoupleID:           id.New(),
			VerificationStatus: domain.CoupleStatusPending,
			InvitationToken:    code,
			CreatedAt:          time.Now().UTC(),
		}
		err = s.pairing.VerifyAndCreateCouple(ctx, accountID, verificationToken, c)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		return nil, err
	}
	return nil, errors.New("could not allocate an unused invitation code")
}

// recheck handles losing a concurrent verification race: if the account is now
// verified the call is an idempotent success, otherwise the token is stale.
func (s *service) recheck(ctx context.Context, accountID string) (*VerifyResult, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Verified {
		return &VerifyResult{Message: "Email already verified", AlreadyVerified: true}, nil
	}
	return nil, fmt.Errorf("verification token mismatch: %w", domain.ErrInvalidToken)
}
