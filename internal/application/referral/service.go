package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"time"

	"github.com/invest-api/internal/domain"
)

const (
	codeLength  = 8
	codeTTL     = 30 * 24 * time.Hour
	maxAttempts = 10
)

// codeAlphabet excludes visually ambiguous glyphs (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type GenerateResult struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MineResult struct {
	Created []domain.ReferralView `json:"created"`
	Used    []domain.ReferralView `json:"used"`
}

type Service interface {
	Generate(ctx context.Context, creatorUserID string) (*GenerateResult, error)
	Mine(ctx context.Context, userID string) (*MineResult, error)
}

type referralStore interface {
	Create(ctx context.Context, ref *domain.Referral) error
	GetByCode(ctx context.Context, code string) (*domain.Referral, error)
	ListByCreator(ctx context.Context, creatorUserID string) ([]domain.Referral, error)
	ListByUsedBy(ctx context.Context, usedByUserID string) ([]domain.Referral, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	referralRepo referralStore
	userRepo     userStore
	now          func() time.Time
}

func NewService(referralRepo referralStore, userRepo userStore) Service {
	return &service{referralRepo: referralRepo, userRepo: userRepo, now: time.Now}
}

// Generate samples codes until one is absent from the ledger. The existence
// check keeps the common path to one read; the store's conditional insert is
// the backstop for the check-then-insert race, and a conflict there re-enters
// the loop instead of surfacing.
func (s *service) Generate(ctx context.Context, creatorUserID string) (*GenerateResult, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return nil, err
		}
		if _, err := s.referralRepo.GetByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		ref := &domain.Referral{
			Code:          code,
			CreatorUserID: creatorUserID,
			IsUsed:        false,
			ExpiresAt:     s.now().Add(codeTTL),
			CreatedAt:     s.now().UTC(),
		}
		err = s.referralRepo.Create(ctx, ref)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &GenerateResult{Code: ref.Code, ExpiresAt: ref.ExpiresAt}, nil
	}
	return nil, errors.New("could not generate a unique referral code")
}

func (s *service) Mine(ctx context.Context, userID string) (*MineResult, error) {
	created, err := s.referralRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := s.referralRepo.ListByUsedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &MineResult{
		Created: make([]domain.ReferralView, 0, len(created)),
		Used:    make([]domain.ReferralView, 0, len(used)),
	}
	for _, ref := range created {
		v := domain.ReferralView{
			Code:      ref.Code,
			IsUsed:    ref.IsUsed,
			ExpiresAt: ref.ExpiresAt,
			CreatedAt: ref.CreatedAt,
		}
		if ref.UsedByUserID != nil {
			v.CounterpartID = *ref.UsedByUserID
			if u, err := s.userRepo.Get(ctx, *ref.UsedByUserID); err == nil {
				v.CounterpartEmail = u.Email
			}
		}
		res.Created = append(res.Created, v)
	}
	for _, ref := range used {
		v := domain.ReferralView{
			Code:      ref.Code,
			IsUsed:    ref.IsUsed,
			ExpiresAt: ref.ExpiresAt,
			CreatedAt: ref.CreatedAt,
		}
		v.CounterpartID = ref.CreatorUserID
		if u, err := s.userRepo.Get(ctx, ref.CreatorUserID); err == nil {
			v.CounterpartEmail = u.Email
		}
		res.Used = append(res.Used, v)
	}

	// Newest first.
	sort.Slice(res.Created, func(i, j int) bool { return res.Created[i].CreatedAt.After(res.Created[j].CreatedAt) })
	sort.Slice(res.Used, func(i, j int) bool { return res.Used[i].CreatedAt.After(res.Used[j].CreatedAt) })
	return res, nil
}

func newCode() (string, error) {
	b := make([]byte, codeLength)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
