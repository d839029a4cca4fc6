package domain

import "time"

// Album groups products into a purchasable bundle.
type Album struct {
	AlbumID    string    `json:"id" dynamodbav:"album_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	ProductIDs []string  `json:"product_ids" dynamodbav:"product_ids"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" dynamodbav:"updated_at"`

	// Populated on read, never persisted.
	Products []Product `json:"products,omitempty" dynamodbav:"-"`
}

type AlbumInput struct {
	Name       string   `json:"name" validate:"required"`
	ProductIDs []string `json:"productIds"`
}
