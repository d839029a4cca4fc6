package album

import (
	"context"
	"fmt"
	"time"

	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/pkg/id"
	"github.com/invest-api/internal/pkg/validate"
)

type Service interface {
	List(ctx context.Context) ([]domain.Album, error)
	Get(ctx context.Context, albumID string) (*domain.Album, error)
	Create(ctx context.Context, req domain.AlbumInput) (*domain.Album, error)
	Update(ctx context.Context, albumID string, req domain.AlbumInput) (*domain.Album, error)
	Delete(ctx context.Context, albumID string) error
	// HasAccess reports whether the user holds an entitlement grant for the album.
	HasAccess(ctx context.Context, userID, albumID string) (bool, error)
}

type albumStore interface {
	Scan(ctx context.Context) ([]domain.Album, error)
	Get(ctx context.Context, albumID string) (*domain.Album, error)
	Put(ctx context.Context, a *domain.Album) error
	Update(ctx context.Context, albumID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, albumID string) error
}

type productStore interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

type accessStore interface {
	Has(ctx context.Context, userID, albumID string) (bool, error)
}

type service struct {
	albumRepo   albumStore
	productRepo productStore
	accessRepo  accessStore
}

func NewService(albumRepo albumStore, productRepo productStore, accessRepo accessStore) Service {
	return &service{albumRepo: albumRepo, productRepo: productRepo, accessRepo: accessRepo}
}

func (s *service) List(ctx context.Context) ([]domain.Album, error) {
	albums, err := s.albumRepo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	for i := range albums {
		s.expand(ctx, &albums[i])
	}
	return albums, nil
}

func (s *service) Get(ctx context.Context, albumID string) (*domain.Album, error) {
	a, err := s.albumRepo.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	s.expand(ctx, a)
	return a, nil
}

func (s *service) Create(ctx context.Context, req domain.AlbumInput) (*domain.Album, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if err := s.checkProducts(ctx, req.ProductIDs); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Album{
		AlbumID:    id.New(),
		Name:       req.Name,
		ProductIDs: req.ProductIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.albumRepo.Put(ctx, a); err != nil {
		return nil, err
	}
	s.expand(ctx, a)
	return a, nil
}

func (s *service) Update(ctx context.Context, albumID string, req domain.AlbumInput) (*domain.Album, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if err := s.checkProducts(ctx, req.ProductIDs); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"name": req.Name}
	if req.ProductIDs != nil {
		updates["product_ids"] = req.ProductIDs
	}
	if err := s.albumRepo.Update(ctx, albumID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, albumID)
}

func (s *service) Delete(ctx context.Context, albumID string) error {
	if _, err := s.albumRepo.Get(ctx, albumID); err != nil {
		return err
	}
	return s.albumRepo.HardDelete(ctx, albumID)
}

func (s *service) HasAccess(ctx context.Context, userID, albumID string) (bool, error) {
	return s.accessRepo.Has(ctx, userID, albumID)
}

func (s *service) checkProducts(ctx context.Context, productIDs []string) error {
	for _, pid := range productIDs {
		if _, err := s.productRepo.Get(ctx, pid); err != nil {
			return fmt.Errorf("product %s: %w", pid, domain.ErrBadRequest)
		}
	}
	return nil
}

// expand resolves product references on the album for read responses.
// A missing product is skipped rather than failing the whole read.
func (s *service) expand(ctx context.Context, a *domain.Album) {
	a.Products = make([]domain.Product, 0, len(a.ProductIDs))
	for _, pid := range a.ProductIDs {
		if p, err := s.productRepo.Get(ctx, pid); err == nil {
			a.Products = append(a.Products, *p)
		}
	}
}
