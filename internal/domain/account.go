package domain

import "time"

// The two complementary partner roles. A couple always holds one of each.
const (
	RoleGirlfriend = "girlfriend"
	RoleBoyfriend  = "boyfriend"
)

type Account struct {
	AccountID             string     `json:"id" dynamodbav:"account_id"`
	Email                 string     `json:"email" dynamodbav:"email"`
	PasswordHash          string     `json:"-" dynamodbav:"password_hash"`
	FirstName             string     `json:"first_name" dynamodbav:"first_name"`
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty" dynamodbav:"date_of_birth,omitempty"`
	Gender                string     `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	Role                  string     `json:"role" dynamodbav:"role"`
	IsFirstPartner        bool       `json:"is_first_partner" dynamodbav:"is_first_partner"`
	CoupleID              *string    `json:"couple_id,omitempty" dynamodbav:"couple_id,omitempty"`
	ProfilePic            *string    `json:"profile_pic,omitempty" dynamodbav:"profile_pic,omitempty"`
	VerificationToken     *string    `json:"-" dynamodbav:"verification_token,omitempty"`
	VerificationExpiresAt *time.Time `json:"-" dynamodbav:"verification_expires_at,omitempty"`
	Verified              bool       `json:"verified" dynamodbav:"verified"`
	CreatedAt             time.Time  `json:"created" dynamodbav:"created_at"`
}

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,max=72"`
	FirstName       string `json:"first_name" validate:"required"`
	DateOfBirth     string `json:"date_of_birth"` // expected format: YYYY-MM-DD
	Gender          string `json:"gender" validate:"omitempty,oneof=male female other"`
	Role            string `json:"role" validate:"required,oneof=girlfriend boyfriend"`
	IsFirstPartner  bool   `json:"is_first_partner"`
	InvitationToken string `json:"invitation_token"` // required when is_first_partner is false
}
