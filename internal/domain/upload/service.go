// internal/domain/upload/service.go
package upload

import (
	"context"
	"fmt"
	"mime"
	"path"
	"slices"

	"github.com/google/uuid"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// Service validates uploads and writes them to the blob store
type Service struct {
	store  BlobStore
	config *config.Config
	log    *logrus.Logger
}

// NewService creates a new upload service
func NewService(store BlobStore, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		store:  store,
		config: cfg,
		log:    log,
	}
}

// Save stores one file under folder and returns its URL
func (s *Service) Save(ctx context.Context, folder string, f File) (string, error) {
	if err := s.validate(f); err != nil {
		return "", err
	}

	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer body.Close()

	key := path.Join(folder, s.generateUniqueFilename(f))
	url, err := s.store.Put(ctx, key, s.contentType(f), body, f.Size)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", f.Filename, err)
	}

	s.log.WithFields(logrus.Fields{
		"folder": folder,
		"file":   f.Filename,
		"size":   f.GetFormattedSize(),
	}).Debug("upload stored")

	return url, nil
}

// SaveAll stores files in order. If one fails, the ones already stored are removed.
func (s *Service) SaveAll(ctx context.Context, folder string, files []File) ([]string, error) {
	for _, f := range files {
		if err := s.validate(f); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Save(ctx, folder, f)
		if err != nil {
			s.Remove(ctx, urls...)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Remove deletes stored objects. Failures are logged, not returned.
func (s *Service) Remove(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.store.Delete(ctx, url); err != nil {
			s.log.WithError(err).WithField("url", url).Warn("failed to remove upload")
		}
	}
}

func (s *Service) validate(f File) error {
	if f.Open == nil {
		return apperror.Validation("upload has no content", f.Filename)
	}
	if f.Size <= 0 {
		return apperror.Validation("upload is empty", f.Filename)
	}
	if f.Size > s.config.Upload.MaxSize {
		return apperror.Validation(fmt.Sprintf("upload exceeds %d bytes", s.config.Upload.MaxSize), f.Filename)
	}
	if !slices.Contains(s.config.Upload.AllowedExtensions, f.Extension()) {
		return apperror.Validation("file type not allowed", f.Filename)
	}
	return nil
}

func (s *Service) generateUniqueFilename(f File) string {
	return uuid.NewString() + "." + f.Extension()
}

func (s *Service) contentType(f File) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ct := mime.TypeByExtension("." + f.Extension()); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
