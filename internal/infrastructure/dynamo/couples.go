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

// CoupleRepo provides typed read operations for the couples table.
type CoupleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCoupleRepo(client *dynamodb.Client, tableName string) *CoupleRepo {
	return &CoupleRepo{client: client, tableName: tableName}
}

func (r *CoupleRepo) Get(ctx context.Context, coupleID string) (*domain.Couple, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("couple_id", coupleID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("couple %s: %w", coupleID, domain.ErrNotFound)
	}
	var c domain.Couple
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetPendingByInvitation resolves an invitation code to the pending couple that
// holds it. Codes are reusable once their couple verifies, so the index can hold
// several couples per code — only a pending one counts.
func (r *CoupleRepo) GetPendingByInvitation(ctx context.Context, code string) (*domain.Couple, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("invitation_token-index"),
		KeyConditionExpression:    aws.String("#t = :v"),
		ExpressionAttributeNames:  map[string]string{"#t": "invitation_token"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: code}},
	})
	if err != nil {
		return nil, err
	}
	var couples []domain.Couple
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &couples); err != nil {
		return nil, err
	}
	for i := range couples {
		if couples[i].VerificationStatus == domain.CoupleStatusPending {
			return &couples[i], nil
		}
	}
	return nil, fmt.Errorf("pending couple for invitation %s: %w", code, domain.ErrNotFound)
}
