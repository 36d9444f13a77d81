package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// conditionFailedAt reports whether err is a cancelled transaction whose item at
// index idx failed its condition expression. DynamoDB reports one cancellation
// reason per transact item, in order.
func conditionFailedAt(err error, idx int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	if idx >= len(tce.CancellationReasons) {
		return false
	}
	code := tce.CancellationReasons[idx].Code
	return code != nil && *code == "ConditionalCheckFailed"
}

// conditionFailed reports whether err is a single-item conditional write failure.
func conditionFailed(err error) bool {
	var ccfe *types.ConditionalCheckFailedException
	return errors.As(err, &ccfe)
}
