package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invest-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) IncrementOTPAttempts(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Put(ctx context.Context, p *domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

type mockReferralStore struct{ mock.Mock }

func (m *mockReferralStore) GetByCode(ctx context.Context, code string) (*domain.Referral, error) {
	args := m.Called(ctx, code)
	if r, _ := args.Get(0).(*domain.Referral); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockReferralStore) MarkUsed(ctx context.Context, code, usedByUserID string) error {
	return m.Called(ctx, code, usedByUserID).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, ps *mockProfileStore, rs *mockReferralStore, ml *mockMailer, sg *mockSigner) *service {
	return NewService(us, ps, rs, ml, sg, "https://app.example.com/verify").(*service)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func strPtr(s string) *string { return &s }

var errStoreDown = errors.New("dynamo unavailable")

func pendingUser(now time.Time) *domain.User {
	expiry := now.Add(5 * time.Minute)
	return &domain.User{
		UserID:       "usr-1",
		Email:        "a@b.com",
		Role:         domain.RoleInvestitore,
		IsActive:     true,
		IsVerified:   false,
		OTPCode:      strPtr("042973"),
		OTPExpiresAt: &expiry,
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockProfileStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "new@b.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "new@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, ps, &mockReferralStore{}, ml, &mockSigner{})
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "new@b.com",
		Password: "password123",
		Role:     domain.RoleInvestitore,
	})

	require.NoError(t, err)
	assert.Equal(t, "new@b.com", res.Email)
	assert.Equal(t, domain.RoleInvestitore, res.Role)
	assert.NotEmpty(t, res.ID)

	stored := us.Calls[1].Arguments.Get(1).(*domain.User)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, 0, stored.OTPAttempts)
	require.NotNil(t, stored.OTPCode)
	assert.Regexp(t, `^\d{6}$`, *stored.OTPCode)
	us.AssertExpectations(t)
	ps.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "usr-1"}, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "a@b.com",
		Password: "password123",
		Role:     domain.RoleInvestitore,
	})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_StoreOutageIsNotAFreeEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, errStoreDown)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "a@b.com",
		Password: "password123",
		Role:     domain.RoleInvestitore,
	})

	require.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_InvalidRole(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "a@b.com",
		Password: "password123",
		Role:     "superuser",
	})
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_ReferralNotFound(t *testing.T) {
	us := &mockUserStore{}
	rs := &mockReferralStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	rs.On("GetByCode", mock.Anything, "AAAA2222").Return(nil, domain.ErrNotFound)

	svc := newService(us, &mockProfileStore{}, rs, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:        "a@b.com",
		Password:     "password123",
		Role:         domain.RoleInvestitore,
		ReferralCode: "AAAA2222",
	})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_ReferralAlreadyUsed(t *testing.T) {
	us := &mockUserStore{}
	rs := &mockReferralStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	rs.On("GetByCode", mock.Anything, "AAAA2222").Return(&domain.Referral{
		Code:      "AAAA2222",
		IsUsed:    true,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil)

	svc := newService(us, &mockProfileStore{}, rs, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:        "a@b.com",
		Password:     "password123",
		Role:         domain.RoleInvestitore,
		ReferralCode: "AAAA2222",
	})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "already used")
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_ReferralExpired(t *testing.T) {
	us := &mockUserStore{}
	rs := &mockReferralStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	rs.On("GetByCode", mock.Anything, "AAAA2222").Return(&domain.Referral{
		Code:      "AAAA2222",
		IsUsed:    false,
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)

	svc := newService(us, &mockProfileStore{}, rs, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:        "a@b.com",
		Password:     "password123",
		Role:         domain.RoleInvestitore,
		ReferralCode: "AAAA2222",
	})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "expired")
	rs.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_ReferralRedeemedAfterUserCreation(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockProfileStore{}
	rs := &mockReferralStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)
	rs.On("GetByCode", mock.Anything, "AAAA2222").Return(&domain.Referral{
		Code:      "AAAA2222",
		IsUsed:    false,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil)
	rs.On("MarkUsed", mock.Anything, "AAAA2222", mock.Anything).Return(nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, ps, rs, ml, &mockSigner{})
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:        "a@b.com",
		Password:     "password123",
		Role:         domain.RoleImprenditore,
		ReferralCode: "AAAA2222",
	})

	require.NoError(t, err)
	rs.AssertCalled(t, "MarkUsed", mock.Anything, "AAAA2222", res.ID)
}

func TestRegister_ReferralLostRace(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockProfileStore{}
	rs := &mockReferralStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)
	rs.On("GetByCode", mock.Anything, "AAAA2222").Return(&domain.Referral{
		Code:      "AAAA2222",
		IsUsed:    false,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil)
	// Another registration flipped the code between validation and redemption.
	rs.On("MarkUsed", mock.Anything, "AAAA2222", mock.Anything).Return(domain.ErrConflict)

	svc := newService(us, ps, rs, &mockMailer{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:        "a@b.com",
		Password:     "password123",
		Role:         domain.RoleInvestitore,
		ReferralCode: "AAAA2222",
	})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "already used")
}

// --- Login ---

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "x@x.com", Password: "whatever1"})

	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{
		UserID:       "usr-1",
		Email:        "a@b.com",
		PasswordHash: hashOf(t, "correct-horse"),
		IsVerified:   true,
	}, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "battery-staple"})

	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnverifiedEmailBlocked(t *testing.T) {
	us := &mockUserStore{}
	sg := &mockSigner{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{
		UserID:       "usr-1",
		Email:        "a@b.com",
		PasswordHash: hashOf(t, "correct-horse"),
		IsVerified:   false,
	}, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, sg)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "correct-horse"})

	require.ErrorIs(t, err, domain.ErrEmailNotVerified)
	sg.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	us := &mockUserStore{}
	sg := &mockSigner{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{
		UserID:       "usr-1",
		Email:        "a@b.com",
		Role:         domain.RoleInvestitore,
		PasswordHash: hashOf(t, "correct-horse"),
		IsVerified:   true,
	}, nil)
	sg.On("Sign", "usr-1", domain.RoleInvestitore).Return("signed-token", nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, sg)
	res, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "correct-horse"})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	assert.Equal(t, "usr-1", res.User.UserID)
}

// --- VerifyOTP ---

func TestVerifyOTP_UserNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "x@x.com", OTP: "042973"})

	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestVerifyOTP_AlreadyVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "usr-1", IsVerified: true}, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "a@b.com", OTP: "042973"})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "verificata")
}

func TestVerifyOTP_AttemptsExhausted_EvenWithCorrectCode(t *testing.T) {
	now := time.Now()
	u := pendingUser(now)
	u.OTPAttempts = maxOTPAttempts

	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(u, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "a@b.com", OTP: *u.OTPCode})

	require.ErrorIs(t, err, domain.ErrTooManyAttempts)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	us.AssertNotCalled(t, "IncrementOTPAttempts", mock.Anything, mock.Anything)
}

func TestVerifyOTP_ExpiredCorrectCode_IsExpiredNotMismatch(t *testing.T) {
	now := time.Now()
	u := pendingUser(now)
	expired := now.Add(-time.Minute)
	u.OTPExpiresAt = &expired

	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(u, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "a@b.com", OTP: *u.OTPCode})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "scaduto")
	us.AssertNotCalled(t, "IncrementOTPAttempts", mock.Anything, mock.Anything)
}

func TestVerifyOTP_WrongCode_IncrementsAttempts(t *testing.T) {
	u := pendingUser(time.Now())

	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(u, nil)
	us.On("IncrementOTPAttempts", mock.Anything, "usr-1").Return(nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "a@b.com", OTP: "000000"})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "errato")
	us.AssertCalled(t, "IncrementOTPAttempts", mock.Anything, "usr-1")
}

func TestVerifyOTP_Success_ClearsState(t *testing.T) {
	u := pendingUser(time.Now())

	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(u, nil)
	us.On("Update", mock.Anything, "usr-1", mock.Anything).Return(nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "a@b.com", OTP: *u.OTPCode})

	require.NoError(t, err)
	updates := us.Calls[1].Arguments.Get(2).(map[string]interface{})
	assert.Equal(t, true, updates["is_verified"])
	assert.Nil(t, updates["otp_code"])
	assert.Nil(t, updates["otp_expires_at"])
	assert.Equal(t, 0, updates["otp_attempts"])
}

// --- ResendOTP ---

func TestResendOTP_IssuesFreshCodeAndResetsAttempts(t *testing.T) {
	u := pendingUser(time.Now())
	u.OTPAttempts = maxOTPAttempts

	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(u, nil)
	us.On("Update", mock.Anything, "usr-1", mock.Anything).Return(nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, ml, &mockSigner{})
	err := svc.ResendOTP(context.Background(), domain.ResendOTPRequest{Email: "a@b.com"})

	require.NoError(t, err)
	updates := us.Calls[1].Arguments.Get(2).(map[string]interface{})
	assert.Regexp(t, `^\d{6}$`, updates["otp_code"])
	assert.Equal(t, 0, updates["otp_attempts"])
	ml.AssertExpectations(t)
}

func TestResendOTP_AlreadyVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "usr-1", IsVerified: true}, nil)

	svc := newService(us, &mockProfileStore{}, &mockReferralStore{}, &mockMailer{}, &mockSigner{})
	err := svc.ResendOTP(context.Background(), domain.ResendOTPRequest{Email: "a@b.com"})

	require.ErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- generateOTP ---

func TestGenerateOTP_SixDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, otp)
	}
}
