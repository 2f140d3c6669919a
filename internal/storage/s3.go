package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

// S3Store keeps attachments in an S3 bucket behind the same contract
// as LocalStore; downloads still stream through the server so the
// document URL stays stable.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{client: client, uploader: manager.NewUploader(client), bucket: bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, originalFilename, mimeType string, size int64, r io.Reader) (*models.Document, error) {
	if err := Validate(mimeType, size); err != nil {
		return nil, err
	}

	stored := storedName(originalFilename)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(stored),
		Body:        io.LimitReader(r, MaxUploadSize),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 upload: %v", apperr.ErrInternal, err)
	}

	return &models.Document{
		URL:              "/download/document/" + stored,
		Filename:         stored,
		OriginalFilename: originalFilename,
		MimeType:         mimeType,
	}, nil
}

func (s *S3Store) Open(ctx context.Context, storedFilename string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedFilename),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}
