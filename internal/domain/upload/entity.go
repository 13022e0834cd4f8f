// internal/domain/upload/entity.go
package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// File is an incoming upload, independent of how it reached the server
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart file header
func FromMultipart(h *multipart.FileHeader) File {
	return File{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Open: func() (io.ReadCloser, error) {
			return h.Open()
		},
	}
}

// Extension returns the lower-case extension without the dot
func (f File) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
}

// BlobStore stores binary objects and hands back a URL they can be fetched from
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}

// Folders used by the storefront
const (
	FolderProductImages = "productImages"
	FolderBannerImages  = "bannerImages"
	FolderMembership    = "membership"
	FolderDealImages    = "dealImages"
)

// GetFormattedSize returns a human readable file size
func (f File) GetFormattedSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}
	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}
