package domain

import "time"

// AlbumAccess is an entitlement grant: the user may access the album.
// At most one grant exists per (user, album) pair; the store enforces it.
type AlbumAccess struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	AlbumID   string    `json:"album_id" dynamodbav:"album_id"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}
