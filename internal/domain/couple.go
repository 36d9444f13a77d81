package domain

import "time"

// Couple verification statuses. The transition is pending -> verified, never back.
const (
	CoupleStatusPending  = "pending"
	CoupleStatusVerified = "verified"
)

type Couple struct {
	CoupleID           string    `json:"id" dynamodbav:"couple_id"`
	VerificationStatus string    `json:"verification_status" dynamodbav:"verification_status"`
	InvitationToken    string    `json:"invitation_token,omitempty" dynamodbav:"invitation_token,omitempty"`
	CreatedAt          time.Time `json:"created" dynamodbav:"created_at"`
}

// CoupleInvitation is the uniqueness guard row for a pending couple's 6-digit code.
// It exists only while the couple is pending; the second partner's registration
// claims it (sets claimed_by), and completing the couple deletes it, which is what
// scopes code uniqueness to pending couples.
type CoupleInvitation struct {
	InvitationToken string `dynamodbav:"invitation_token"`
	CoupleID        string `dynamodbav:"couple_id"`
	ClaimedBy       string `dynamodbav:"claimed_by,omitempty"`
}
