package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/invest-api/internal/domain"
)

// AccessRepo stores entitlement grants. PK: user_id, SK: album_id.
type AccessRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccessRepo(client *dynamodb.Client, tableName string) *AccessRepo {
	return &AccessRepo{client: client, tableName: tableName}
}

// Grant inserts an entitlement. The condition enforces at-most-one grant per
// (user, album) pair; a duplicate insert fails with ErrConflict, which the
// webhook path treats as a no-op (at-least-once delivery).
func (r *AccessRepo) Grant(ctx context.Context, a *domain.AlbumAccess) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal album access: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("access already granted: %w", domain.ErrConflict)
	}
	return err
}

// Has reports whether the user holds a grant for the album.
func (r *AccessRepo) Has(ctx context.Context, userID, albumID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "album_id", albumID),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}
