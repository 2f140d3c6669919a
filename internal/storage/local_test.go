package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestValidateAllowList(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		size     int64
		wantErr  bool
	}{
		{"pdf ok", "application/pdf", 1024, false},
		{"docx ok", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 1024, false},
		{"plain text ok", "text/plain", 1, false},
		{"legacy excel ok", "application/vnd.ms-excel", 1024, false},
		{"pptx ok", "application/vnd.openxmlformats-officedocument.presentationml.presentation", 1024, false},
		{"zip rejected", "application/zip", 1024, true},
		{"image rejected", "image/png", 1024, true},
		{"empty rejected", "application/pdf", 0, true},
		{"over ceiling rejected", "application/pdf", MaxUploadSize + 1, true},
		{"at ceiling ok", "application/pdf", MaxUploadSize, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.mimeType, tc.size)
			if tc.wantErr {
				require.ErrorIs(t, err, apperr.ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSaveRejectsDisallowedTypeBeforeWriting(t *testing.T) {
	s := newLocal(t)
	_, err := s.Save(context.Background(), "archive.zip", "application/zip", 10, strings.NewReader("zip bytes!"))
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	s := newLocal(t)
	content := "hello document"

	doc, err := s.Save(context.Background(), "notes.txt", "text/plain", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", doc.OriginalFilename)
	assert.Equal(t, "text/plain", doc.MimeType)
	assert.NotEqual(t, doc.OriginalFilename, doc.Filename)
	assert.Equal(t, "/download/document/"+doc.Filename, doc.URL)

	rc, err := s.Open(context.Background(), doc.Filename)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
}

func TestSameOriginalNameNeverCollides(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	d1, err := s.Save(ctx, "report.pdf", "application/pdf", 4, strings.NewReader("one!"))
	require.NoError(t, err)
	d2, err := s.Save(ctx, "report.pdf", "application/pdf", 4, strings.NewReader("two!"))
	require.NoError(t, err)

	assert.NotEqual(t, d1.Filename, d2.Filename)
	assert.Equal(t, d1.OriginalFilename, d2.OriginalFilename)
}

func TestOpenMissingFile(t *testing.T) {
	s := newLocal(t)
	_, err := s.Open(context.Background(), "nope.pdf")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOpenRefusesPathTraversal(t *testing.T) {
	s := newLocal(t)
	_, err := s.Open(context.Background(), "../secrets.txt")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
