package domain

import "time"

// Roles accepted at registration.
const (
	RoleImprenditore = "imprenditore"
	RoleInvestitore  = "investitore"
	RoleAdmin        = "admin"
)

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	IsActive     bool       `json:"is_active" dynamodbav:"is_active"`
	IsVerified   bool       `json:"is_verified" dynamodbav:"is_verified"`
	OTPCode      *string    `json:"-" dynamodbav:"otp_code"`
	OTPExpiresAt *time.Time `json:"-" dynamodbav:"otp_expires_at"`
	OTPAttempts  int        `json:"-" dynamodbav:"otp_attempts"`
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Role         string `json:"role" validate:"required,oneof=imprenditore investitore admin"`
	ReferralCode string `json:"referralCode" validate:"omitempty,len=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}
