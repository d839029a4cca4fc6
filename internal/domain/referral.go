package domain

import "time"

// Referral is a single-use, time-limited code attributing a new account to
// its creator. The used flag flips exactly once; redemption is one-way.
type Referral struct {
	Code          string    `json:"code" dynamodbav:"code"`
	CreatorUserID string    `json:"creator_user_id" dynamodbav:"creator_user_id"`
	IsUsed        bool      `json:"is_used" dynamodbav:"is_used"`
	// omitempty keeps the attribute absent until redemption: used_by_user_id
	// is a string-typed GSI hash key, and a NULL attribute there fails the
	// whole PutItem. The index is sparse until MarkUsed sets the value.
	UsedByUserID  *string   `json:"used_by_user_id,omitempty" dynamodbav:"used_by_user_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
}

// ReferralView is the per-user listing shape: a referral plus the email of
// the counterpart (consumer for created codes, creator for used ones).
type ReferralView struct {
	Code             string    `json:"code"`
	IsUsed           bool      `json:"isUsed"`
	ExpiresAt        time.Time `json:"expiresAt"`
	CreatedAt        time.Time `json:"createdAt"`
	CounterpartID    string    `json:"counterpartId,omitempty"`
	CounterpartEmail string    `json:"counterpartEmail,omitempty"`
}
