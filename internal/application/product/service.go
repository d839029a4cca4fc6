package product

import (
	"context"
	"fmt"
	"time"

	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/pkg/id"
	"github.com/invest-api/internal/pkg/validate"
)

type Service interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error)
	Update(ctx context.Context, productID string, req domain.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, productID string) error
}

type productStore interface {
	Scan(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Put(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, productID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, productID string) error
}

type service struct {
	repo productStore
}

func NewService(repo productStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.Get(ctx, productID)
}

func (s *service) Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	p := &domain.Product{
		ProductID:   id.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, productID string, req domain.UpdateProductRequest) (*domain.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, productID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, productID)
}

func (s *service) Delete(ctx context.Context, productID string) error {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return err
	}
	return s.repo.HardDelete(ctx, productID)
}
