package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	fileapp "github.com/invest-api/internal/application/file"
	s3infra "github.com/invest-api/internal/infrastructure/s3"
)

// FileHandler handles catalog image upload and download.
type FileHandler struct {
	svc fileapp.Service
}

func NewFileHandler(svc fileapp.Service) *FileHandler { return &FileHandler{svc: svc} }

// UploadProductImage stores a multipart image under the product's S3 prefix
// and records the resulting URL on the product.
func (h *FileHandler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	url, err := h.svc.UploadProductImage(r.Context(), chi.URLParam(r, "id"), header.Filename, f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}
	rc, err := h.svc.Download(r.Context(), key)
	if err != nil {
		httpError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", s3infra.ContentTypeFromName(key))
	_, _ = io.Copy(w, rc)
}
