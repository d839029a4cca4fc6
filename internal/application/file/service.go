package file

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/invest-api/internal/domain"
	s3infra "github.com/invest-api/internal/infrastructure/s3"
)

// Service stores catalog images in S3 and attaches their URL to the owning
// product or album record.
type Service interface {
	UploadProductImage(ctx context.Context, productID, filename string, r io.Reader) (url string, err error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

type productStore interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Update(ctx context.Context, productID string, updates map[string]interface{}) error
}

type service struct {
	s3          *s3infra.Store
	productRepo productStore
}

func NewService(s3 *s3infra.Store, productRepo productStore) Service {
	return &service{s3: s3, productRepo: productRepo}
}

func (s *service) UploadProductImage(ctx context.Context, productID, filename string, r io.Reader) (string, error) {
	if _, err := s.productRepo.Get(ctx, productID); err != nil {
		return "", err
	}
	safeName := sanitizeFilename(filename)
	key := fmt.Sprintf("products/%s/%s", productID, safeName)
	url, err := s.s3.Upload(ctx, key, r, s3infra.ContentTypeFromName(safeName))
	if err != nil {
		return "", err
	}
	if err := s.productRepo.Update(ctx, productID, map[string]interface{}{"image_url": url}); err != nil {
		return "", err
	}
	return url, nil
}

func (s *service) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.s3.Download(ctx, key)
}

// sanitizeFilename strips any path components and rejects empty names.
func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}
