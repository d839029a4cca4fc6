package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invest-api/internal/config"
	"github.com/invest-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/invest-api/internal/infrastructure/jwt"
	s3infra "github.com/invest-api/internal/infrastructure/s3"
	"github.com/invest-api/internal/infrastructure/smtp"
	"github.com/invest-api/internal/infrastructure/sns"
	"github.com/invest-api/internal/infrastructure/stripepay"
	transporthttp "github.com/invest-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider := jwtinfra.NewProvider(cfg)

	// S3 store for catalog images.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer for OTP delivery.
	mailer := smtp.NewMailer(cfg)

	// SNS reconciliation alerts (optional — graceful fallback).
	var alerts sns.AlertPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		alerts = p
	} else {
		log.Printf("WARN: SNS alert publisher not available: %v", err)
	}

	stripeClient := stripepay.NewClient(cfg)

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		ProfileRepo:  dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles),
		ProductRepo:  dynamo.NewProductRepo(dynamoClient, cfg.DynamoTables.Products),
		AlbumRepo:    dynamo.NewAlbumRepo(dynamoClient, cfg.DynamoTables.Albums),
		ReferralRepo: dynamo.NewReferralRepo(dynamoClient, cfg.DynamoTables.Referrals),
		AccessRepo:   dynamo.NewAccessRepo(dynamoClient, cfg.DynamoTables.AlbumAccess),
		S3Store:      s3Store,
		Mailer:       mailer,
		Alerts:       alerts,
		StripeClient: stripeClient,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
