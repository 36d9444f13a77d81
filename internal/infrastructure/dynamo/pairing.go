package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/uandi/couples-api/internal/config"
	"github.com/uandi/couples-api/internal/domain"
)

// PairingRepo holds the cross-table TransactWriteItems operations that carry the
// pairing invariants: every multi-row transition commits atomically or not at
// all, and condition expressions act as the uniqueness backstop the SQL schema
// would express as unique constraints.
type PairingRepo struct {
	client *dynamodb.Client
	tables config.DynamoTables
}

func NewPairingRepo(client *dynamodb.Client, tables config.DynamoTables) *PairingRepo {
	return &PairingRepo{client: client, tables: tables}
}

// CreateAccount inserts a new account together with its email uniqueness guard.
// When invitationToken is non-empty (second partner), the invitation guard row is
// claimed in the same transaction: the claim condition fails if the couple has
// already verified (guard deleted) or another registration claimed it first.
func (r *PairingRepo) CreateAccount(ctx context.Context, a *domain.Account, invitationToken string) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	items := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                aws.String(r.tables.Accounts),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "account_id"},
		}},
		{Put: &types.Put{
			TableName: aws.String(r.tables.AccountEmails),
			Item: map[string]types.AttributeValue{
				"email":      &types.AttributeValueMemberS{Value: a.Email},
				"account_id": &types.AttributeValueMemberS{Value: a.AccountID},
			},
			ConditionExpression:      aws.String("attribute_not_exists(#e)"),
			ExpressionAttributeNames: map[string]string{"#e": "email"},
		}},
	}
	if invitationToken != "" {
		items = append(items, types.TransactWriteItem{Update: &types.Update{
			TableName:                aws.String(r.tables.CoupleInvitations),
			Key:                      strKey("invitation_token", invitationToken),
			UpdateExpression:         aws.String("SET #c = :a"),
			ConditionExpression:      aws.String("attribute_exists(#t) AND attribute_not_exists(#c)"),
			ExpressionAttributeNames: map[string]string{"#t": "invitation_token", "#c": "claimed_by"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":a": &types.AttributeValueMemberS{Value: a.AccountID},
			},
		}})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	switch {
	case err == nil:
		return nil
	case conditionFailedAt(err, 1):
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	case conditionFailedAt(err, 2):
		return fmt.Errorf("invitation code no longer available: %w", domain.ErrInvalidInvitation)
	default:
		return err
	}
}

// MarkVerified flips an unpaired account to verified and clears its token and
// expiry. The condition on the stored token makes concurrent verifications
// single-winner; the loser sees domain.ErrInvalidToken and should re-read.
func (r *PairingRepo) MarkVerified(ctx context.Context, accountID, verificationToken string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tables.Accounts),
		Key:                      strKey("account_id", accountID),
		UpdateExpression:         aws.String("SET #v = :true REMOVE #t, #x"),
		ConditionExpression:      aws.String("#t = :tok"),
		ExpressionAttributeNames: verifiedNames(),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
			":tok":  &types.AttributeValueMemberS{Value: verificationToken},
		},
	})
	if conditionFailed(err) {
		return fmt.Errorf("verification state changed: %w", domain.ErrInvalidToken)
	}
	return err
}

// VerifyAndCreateCouple is the first partner's verification transition: insert
// the new pending couple and its invitation guard, and mark the account verified
// and linked, all atomically. Returns domain.ErrConflict if the freshly drawn
// invitation code is already held by another pending couple (caller retries with
// a new code) and domain.ErrInvalidToken if the account's verification token no
// longer matches.
func (r *PairingRepo) VerifyAndCreateCouple(ctx context.Context, accountID, verificationToken string, c *domain.Couple) error {
	coupleItem, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal couple: %w", err)
	}

	items := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                aws.String(r.tables.Couples),
			Item:                     coupleItem,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "couple_id"},
		}},
		{Put: &types.Put{
			TableName: aws.String(r.tables.CoupleInvitations),
			Item: map[string]types.AttributeValue{
				"invitation_token": &types.AttributeValueMemberS{Value: c.InvitationToken},
				"couple_id":        &types.AttributeValueMemberS{Value: c.CoupleID},
			},
			ConditionExpression:      aws.String("attribute_not_exists(#t)"),
			ExpressionAttributeNames: map[string]string{"#t": "invitation_token"},
		}},
		{Update: &types.Update{
			TableName:                aws.String(r.tables.Accounts),
			Key:                      strKey("account_id", accountID),
			UpdateExpression:         aws.String("SET #v = :true, #c = :cid REMOVE #t, #x"),
			ConditionExpression:      aws.String("#t = :tok"),
			ExpressionAttributeNames: verifiedNamesWith("#c", "couple_id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":true": &types.AttributeValueMemberBOOL{Value: true},
				":cid":  &types.AttributeValueMemberS{Value: c.CoupleID},
				":tok":  &types.AttributeValueMemberS{Value: verificationToken},
			},
		}},
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	switch {
	case err == nil:
		return nil
	case conditionFailedAt(err, 1):
		return fmt.Errorf("invitation code already in use: %w", domain.ErrConflict)
	case conditionFailedAt(err, 2):
		return fmt.Errorf("verification state changed: %w", domain.ErrInvalidToken)
	default:
		return err
	}
}

// VerifyAndCompleteCouple is the second partner's verification transition: mark
// the account verified, advance the couple pending -> verified and drop the
// invitation guard so the code becomes reusable. Returns domain.ErrPairingFailed
// if the couple is missing or not pending anymore.
func (r *PairingRepo) VerifyAndCompleteCouple(ctx context.Context, accountID, verificationToken string, c *domain.Couple) error {
	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:                aws.String(r.tables.Accounts),
			Key:                      strKey("account_id", accountID),
			UpdateExpression:         aws.String("SET #v = :true REMOVE #t, #x"),
			ConditionExpression:      aws.String("#t = :tok"),
			ExpressionAttributeNames: verifiedNames(),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":true": &types.AttributeValueMemberBOOL{Value: true},
				":tok":  &types.AttributeValueMemberS{Value: verificationToken},
			},
		}},
		{Update: &types.Update{
			TableName:                aws.String(r.tables.Couples),
			Key:                      strKey("couple_id", c.CoupleID),
			UpdateExpression:         aws.String("SET #s = :verified"),
			ConditionExpression:      aws.String("attribute_exists(#id) AND #s = :pending"),
			ExpressionAttributeNames: map[string]string{"#s": "verification_status", "#id": "couple_id"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":verified": &types.AttributeValueMemberS{Value: domain.CoupleStatusVerified},
				":pending":  &types.AttributeValueMemberS{Value: domain.CoupleStatusPending},
			},
		}},
	}
	if c.InvitationToken != "" {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.tables.CoupleInvitations),
			Key:       strKey("invitation_token", c.InvitationToken),
		}})
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	switch {
	case err == nil:
		return nil
	case conditionFailedAt(err, 0):
		return fmt.Errorf("verification state changed: %w", domain.ErrInvalidToken)
	case conditionFailedAt(err, 1):
		return fmt.Errorf("couple missing or not pending: %w", domain.ErrPairingFailed)
	default:
		return err
	}
}

func verifiedNames() map[string]string {
	return map[string]string{
		"#v": "verified",
		"#t": "verification_token",
		"#x": "verification_expires_at",
	}
}

func verifiedNamesWith(alias, attr string) map[string]string {
	names := verifiedNames()
	names[alias] = attr
	return names
}
