package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"time"

	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/pkg/id"
	"github.com/invest-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpLength      = 6
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 5
)

type RegisterResult struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error)
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error
	ResendOTP(ctx context.Context, req domain.ResendOTPRequest) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	IncrementOTPAttempts(ctx context.Context, userID string) error
}

type profileStore interface {
	Put(ctx context.Context, p *domain.Profile) error
}

type referralStore interface {
	GetByCode(ctx context.Context, code string) (*domain.Referral, error)
	MarkUsed(ctx context.Context, code, usedByUserID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type tokenSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	userRepo     userStore
	profileRepo  profileStore
	referralRepo referralStore
	mailer       mailer
	signer       tokenSigner
	verifyURL    string
	now          func() time.Time
}

func NewService(userRepo userStore, profileRepo profileStore, referralRepo referralStore, mailer mailer, signer tokenSigner, verifyURL string) Service {
	return &service{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		referralRepo: referralRepo,
		mailer:       mailer,
		signer:       signer,
		verifyURL:    verifyURL,
		now:          time.Now,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("User already exists: %w", domain.ErrBadRequest)
	} else if !errors.Is(err, domain.ErrNotFound) {
		// A store outage is not a free email.
		return nil, err
	}

	// Referral codes are validated before the user exists and marked used
	// only after, so a failed registration never burns a code.
	if req.ReferralCode != "" {
		ref, err := s.referralRepo.GetByCode(ctx, req.ReferralCode)
		if err != nil {
			return nil, fmt.Errorf("Referral code not found: %w", domain.ErrBadRequest)
		}
		if ref.IsUsed {
			return nil, fmt.Errorf("Referral code already used: %w", domain.ErrBadRequest)
		}
		if !s.now().Before(ref.ExpiresAt) {
			return nil, fmt.Errorf("Referral code expired: %w", domain.ErrBadRequest)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}
	otpExpiry := s.now().Add(otpTTL)

	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
		IsVerified:   false,
		OTPCode:      &otp,
		OTPExpiresAt: &otpExpiry,
		OTPAttempts:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, err
	}

	if err := s.profileRepo.Put(ctx, &domain.Profile{
		ProfileID: id.New(),
		UserID:    u.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	if req.ReferralCode != "" {
		// Conditional flip: of two overlapping registrations with the same
		// code, exactly one wins the used=false -> true transition.
		if err := s.referralRepo.MarkUsed(ctx, req.ReferralCode, u.UserID); err != nil {
			return nil, fmt.Errorf("Referral code already used: %w", domain.ErrBadRequest)
		}
	}

	if err := s.sendOTPEmail(u.Email, otp); err != nil {
		return nil, err
	}

	return &RegisterResult{
		ID:      u.UserID,
		Email:   u.Email,
		Role:    u.Role,
		Message: "Registrazione avvenuta. Controlla la mail per il codice di verifica OTP.",
	}, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("Invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("Invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.IsVerified {
		return nil, fmt.Errorf("Email non verificata. Controlla la tua casella mail e inserisci il codice OTP.: %w", domain.ErrEmailNotVerified)
	}

	token, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

// VerifyOTP check order matters: verified state first, then exhaustion, then
// expiry, then the code itself. An exhausted user is blocked even with a
// still-valid correct code until ResendOTP issues a new one.
func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("Utente non trovato: %w", domain.ErrBadRequest)
	}
	if u.IsVerified {
		return fmt.Errorf("Email già verificata: %w", domain.ErrBadRequest)
	}
	if u.OTPAttempts >= maxOTPAttempts {
		return fmt.Errorf("Troppi tentativi. Richiedi un nuovo codice.: %w", domain.ErrTooManyAttempts)
	}
	if u.OTPCode == nil || u.OTPExpiresAt == nil || !s.now().Before(*u.OTPExpiresAt) {
		return fmt.Errorf("OTP scaduto. Richiedi un nuovo codice.: %w", domain.ErrBadRequest)
	}
	if *u.OTPCode != req.OTP {
		if err := s.userRepo.IncrementOTPAttempts(ctx, u.UserID); err != nil {
			slog.Warn("failed to increment otp attempts", "user_id", u.UserID, "err", err)
		}
		return fmt.Errorf("Codice OTP errato: %w", domain.ErrBadRequest)
	}

	return s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
		"is_verified":    true,
		"otp_code":       nil,
		"otp_expires_at": nil,
		"otp_attempts":   0,
	})
}

func (s *service) ResendOTP(ctx context.Context, req domain.ResendOTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("Utente non trovato: %w", domain.ErrBadRequest)
	}
	if u.IsVerified {
		return fmt.Errorf("Email già verificata: %w", domain.ErrBadRequest)
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	otpExpiry := s.now().Add(otpTTL)

	// Issuing a fresh code invalidates the outstanding one and resets the
	// attempt counter.
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
		"otp_code":       otp,
		"otp_expires_at": otpExpiry,
		"otp_attempts":   0,
	}); err != nil {
		return err
	}

	return s.sendOTPEmail(u.Email, otp)
}

func (s *service) sendOTPEmail(to, otp string) error {
	link := fmt.Sprintf("%s?email=%s&otp=%s", s.verifyURL, url.QueryEscape(to), otp)
	body := fmt.Sprintf(`Per verificare la tua identità, utilizza il codice seguente:

%s

Oppure clicca sul link per verificare:
%s

Non condividere questo OTP con nessuno. Il nostro team di assistenza clienti non ti chiederà mai la tua password, OTP, carta di credito o informazioni bancarie.

Ci auguriamo di vederti presto.
`, otp, link)
	return s.mailer.SendEmail(to, "Codice di verifica", body)
}

// generateOTP draws each digit independently from a uniform 0-9 distribution,
// so leading zeros are as likely as any other digit.
func generateOTP() (string, error) {
	digits := make([]byte, otpLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
