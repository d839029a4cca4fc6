package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/invest-api/internal/domain"
)

// ReferralRepo provides typed DynamoDB operations for the referrals table.
// PK: code. GSIs: creator_user_id-index, used_by_user_id-index.
type ReferralRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewReferralRepo(client *dynamodb.Client, tableName string) *ReferralRepo {
	return &ReferralRepo{client: client, tableName: tableName}
}

// Create inserts a referral. The condition is the uniqueness backstop for the
// generation retry loop: a concurrent insert of the same code fails here with
// ErrConflict instead of silently overwriting.
func (r *ReferralRepo) Create(ctx context.Context, ref *domain.Referral) error {
	item, err := attributevalue.MarshalMap(ref)
	if err != nil {
		return fmt.Errorf("marshal referral: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(code)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("referral code already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *ReferralRepo) GetByCode(ctx context.Context, code string) (*domain.Referral, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code", code),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("referral not found: %w", domain.ErrNotFound)
	}
	var ref domain.Referral
	if err := attributevalue.UnmarshalMap(out.Item, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// MarkUsed flips the code to used, recording the consumer. The update is
// conditional on is_used still being false so that of two overlapping
// redemptions exactly one wins; the loser gets ErrConflict.
func (r *ReferralRepo) MarkUsed(ctx context.Context, code, usedByUserID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("code", code),
		UpdateExpression:    aws.String("SET is_used = :t, used_by_user_id = :u"),
		ConditionExpression: aws.String("is_used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
			":u": &types.AttributeValueMemberS{Value: usedByUserID},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("referral already used: %w", domain.ErrConflict)
	}
	return err
}

func (r *ReferralRepo) ListByCreator(ctx context.Context, creatorUserID string) ([]domain.Referral, error) {
	return r.queryGSI(ctx, "creator_user_id-index", "creator_user_id", creatorUserID)
}

func (r *ReferralRepo) ListByUsedBy(ctx context.Context, usedByUserID string) ([]domain.Referral, error) {
	return r.queryGSI(ctx, "used_by_user_id-index", "used_by_user_id", usedByUserID)
}

func (r *ReferralRepo) queryGSI(ctx context.Context, index, attr, value string) ([]domain.Referral, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	})
	if err != nil {
		return nil, err
	}
	var refs []domain.Referral
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}
