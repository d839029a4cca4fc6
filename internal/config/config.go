package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTSecret     string
	JWTExpiryDays int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion        string
	SNSAlertTopicARN string // reconciliation alerts; empty disables publishing

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	FrontendVerifyURL string

	// Timeout applied to outbound calls to external services (Stripe).
	ExternalTimeout time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users       string
	Profiles    string
	Products    string
	Albums      string
	Referrals   string
	AlbumAccess string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:       getEnv("DYNAMO_TABLE_USERS", "users"),
			Profiles:    getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
			Products:    getEnv("DYNAMO_TABLE_PRODUCTS", "products"),
			Albums:      getEnv("DYNAMO_TABLE_ALBUMS", "albums"),
			Referrals:   getEnv("DYNAMO_TABLE_REFERRALS", "referrals"),
			AlbumAccess: getEnv("DYNAMO_TABLE_ALBUM_ACCESS", "album_access"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "invest-api-files"),

		JWTSecret:     getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiryDays: getEnvInt("JWT_EXPIRY_DAYS", 7),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		SNSAlertTopicARN: getEnv("SNS_ALERT_TOPIC_ARN", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "myapp://payment-success?session_id={CHECKOUT_SESSION_ID}"),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "myapp://payment-cancel"),

		FrontendVerifyURL: getEnv("FRONTEND_VERIFY_URL", "http://localhost:3000/verify-otp"),

		ExternalTimeout: time.Duration(getEnvInt("EXTERNAL_TIMEOUT_SECONDS", 15)) * time.Second,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
