package profile

import (
	"context"
	"fmt"

	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/pkg/validate"
)

type Service interface {
	GetMine(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateMine(ctx context.Context, userID string, req domain.ProfileInput) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	Update(ctx context.Context, profileID string, req domain.ProfileInput) (*domain.Profile, error)
	Delete(ctx context.Context, profileID string) error
}

type profileStore interface {
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, profileID string, updates map[string]interface{}) error
	Scan(ctx context.Context) ([]domain.Profile, error)
	HardDelete(ctx context.Context, profileID string) error
}

type service struct {
	repo profileStore
}

func NewService(repo profileStore) Service {
	return &service{repo: repo}
}

func (s *service) GetMine(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) UpdateMine(ctx context.Context, userID string, req domain.ProfileInput) (*domain.Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p.ProfileID, req)
}

func (s *service) List(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	return s.repo.Get(ctx, profileID)
}

func (s *service) Update(ctx context.Context, profileID string, req domain.ProfileInput) (*domain.Profile, error) {
	if _, err := s.repo.Get(ctx, profileID); err != nil {
		return nil, err
	}
	return s.apply(ctx, profileID, req)
}

func (s *service) Delete(ctx context.Context, profileID string) error {
	if _, err := s.repo.Get(ctx, profileID); err != nil {
		return err
	}
	return s.repo.HardDelete(ctx, profileID)
}

func (s *service) apply(ctx context.Context, profileID string, req domain.ProfileInput) (*domain.Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	updates := map[string]interface{}{
		"name":      req.Name,
		"surname":   req.Surname,
		"bio":       req.Bio,
		"sector":    req.Sector,
		"interests": req.Interests,
	}
	if err := s.repo.Update(ctx, profileID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, profileID)
}
