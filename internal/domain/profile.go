package domain

import "time"

// Profile is the public-facing record attached 1:1 to a user.
// Created empty at registration, filled in by the user afterwards.
type Profile struct {
	ProfileID string    `json:"id" dynamodbav:"profile_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Surname   string    `json:"surname" dynamodbav:"surname"`
	Bio       string    `json:"bio" dynamodbav:"bio"`
	Sector    string    `json:"sector" dynamodbav:"sector"`
	Interests string    `json:"interests" dynamodbav:"interests"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type ProfileInput struct {
	Name      string `json:"name" validate:"required"`
	Surname   string `json:"surname" validate:"required"`
	Bio       string `json:"bio"`
	Sector    string `json:"sector"`
	Interests string `json:"interests"`
}
