// Package imagestore turns uploaded receipt and activity photos into URLs
// that can be stored on payments and expenses.
package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"tesoreria/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var allowed = []string{"image/jpeg", "image/png", "image/gif"}

type Store interface {
	Save(ctx context.Context, data []byte) (string, error)
}

// Detect sniffs the content type of data. Only jpeg, png and gif pass.
func Detect(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, &domain.ValidationError{Field: "file", Message: "file is empty"}
	}
	mtype := mimetype.Detect(data)
	for _, a := range allowed {
		if mtype.Is(a) {
			return mtype, nil
		}
	}
	return nil, &domain.ValidationError{Field: "file", Message: "invalid file type " + mtype.String()}
}

// DataURLStore inlines the image as a base64 data URL.
type DataURLStore struct{}

func (DataURLStore) Save(_ context.Context, data []byte) (string, error) {
	mtype, err := Detect(data)
	if err != nil {
		return "", err
	}
	return "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DiskStore writes images under Dir and returns URLs under URLPrefix.
type DiskStore struct {
	Dir       string
	URLPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{Dir: dir, URLPrefix: urlPrefix}, nil
}

func (s *DiskStore) Save(_ context.Context, data []byte) (string, error) {
	mtype, err := Detect(data)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join(s.URLPrefix, name), nil
}
