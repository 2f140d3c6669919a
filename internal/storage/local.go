package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

// LocalStore writes attachments to a directory on disk and serves them
// back through the download route.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, originalFilename, mimeType string, size int64, r io.Reader) (*models.Document, error) {
	if err := Validate(mimeType, size); err != nil {
		return nil, err
	}

	stored := storedName(originalFilename)
	path := filepath.Join(s.dir, stored)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create upload: %v", apperr.ErrInternal, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(r, MaxUploadSize)); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write upload: %v", apperr.ErrInternal, err)
	}

	return &models.Document{
		URL:              "/download/document/" + stored,
		Filename:         stored,
		OriginalFilename: originalFilename,
		MimeType:         mimeType,
	}, nil
}

func (s *LocalStore) Open(_ context.Context, storedFilename string) (io.ReadCloser, error) {
	// the stored name is server-generated; still refuse path tricks
	if storedFilename != filepath.Base(storedFilename) {
		return nil, apperr.ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, storedFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// storedName prefixes a short uuid so concurrent uploads of the same
// file never collide, while keeping the original name readable.
func storedName(original string) string {
	base := filepath.Base(original)
	base = strings.ReplaceAll(base, " ", "_")
	return uuid.NewString()[:8] + "_" + base
}
