package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/uandi/couples-api/internal/domain"
)

// AccountRepo provides typed read operations for the accounts table.
// All writes that carry pairing invariants go through PairingRepo instead.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("account_id", accountID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#e = :v"),
		ExpressionAttributeNames:  map[string]string{"#e": "email"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account with email %s: %w", email, domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindFirstPartner returns the account that initiated the given couple.
func (r *AccountRepo) FindFirstPartner(ctx context.Context, coupleID string) (*domain.Account, error) {
	accounts, err := r.queryByCouple(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].IsFirstPartner {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("first partner of couple %s: %w", coupleID, domain.ErrNotFound)
}

// FindPartner returns the other account sharing coupleID, excluding accountID.
// At most one is expected.
func (r *AccountRepo) FindPartner(ctx context.Context, coupleID, accountID string) (*domain.Account, error) {
	accounts, err := r.queryByCouple(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].AccountID != accountID {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("partner in couple %s: %w", coupleID, domain.ErrNotFound)
}

func (r *AccountRepo) queryByCouple(ctx context.Context, coupleID string) ([]domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("couple_id-index"),
		KeyConditionExpression:    aws.String("#c = :v"),
		ExpressionAttributeNames:  map[string]string{"#c": "couple_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: coupleID}},
	})
	if err != nil {
		return nil, err
	}
	var accounts []domain.Account
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
