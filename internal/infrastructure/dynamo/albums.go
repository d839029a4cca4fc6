package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/invest-api/internal/domain"
)

// AlbumRepo provides typed DynamoDB operations for the albums table.
type AlbumRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAlbumRepo(client *dynamodb.Client, tableName string) *AlbumRepo {
	return &AlbumRepo{client: client, tableName: tableName}
}

func (r *AlbumRepo) Put(ctx context.Context, a *domain.Album) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal album: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AlbumRepo) Get(ctx context.Context, albumID string) (*domain.Album, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("album_id", albumID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("album not found: %w", domain.ErrNotFound)
	}
	var a domain.Album
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlbumRepo) Scan(ctx context.Context) ([]domain.Album, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var albums []domain.Album
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (r *AlbumRepo) Update(ctx context.Context, albumID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("album_id", albumID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *AlbumRepo) HardDelete(ctx context.Context, albumID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("album_id", albumID),
	})
	return err
}
