package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

// MaxUploadSize is the attachment size ceiling.
const MaxUploadSize = 50 * 1024 * 1024

// Document attachments only: PDF, Word, plain text, Excel and
// PowerPoint, in both legacy and OOXML flavors.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                true,
	"application/vnd.ms-excel":  true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-powerpoint":                                     true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// Store persists attachment binaries and hands back an opaque
// descriptor the message layer embeds as-is.
type Store interface {
	Save(ctx context.Context, originalFilename, mimeType string, size int64, r io.Reader) (*models.Document, error)
	Open(ctx context.Context, storedFilename string) (io.ReadCloser, error)
}

// Validate rejects disallowed types and oversized uploads before
// anything touches the backend.
func Validate(mimeType string, size int64) error {
	if !allowedMimeTypes[mimeType] {
		return fmt.Errorf("%w: file type %q not allowed", apperr.ErrValidation, mimeType)
	}
	if size <= 0 || size > MaxUploadSize {
		return fmt.Errorf("%w: file size %d out of range", apperr.ErrValidation, size)
	}
	return nil
}
