package service

import (
	"context"
	"log/slog"

	"tesoreria/internal/domain"
)

// UploadImage stores a receipt or activity photo and returns its reference.
func (s *Service) UploadImage(ctx context.Context, ownerID string, data []byte) (string, error) {
	if err := requireOwner(ownerID); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", &domain.ValidationError{Field: "file", Message: "file is empty"}
	}
	ref, err := s.images.Save(ctx, data)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "image uploaded", "treasurer_id", ownerID, "bytes", len(data))
	return ref, nil
}
