package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"app/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Upload carries a binary blob received from a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Placeholder references used until an upload completes. Courses and users
// always carry a valid media reference, even before any file is attached.
var (
	PlaceholderThumbnail = model.MediaRef{PublicID: "placeholders/thumbnail", SecureURL: "https://static.lms.example.com/placeholders/thumbnail.jpg"}
	PlaceholderAvatar    = model.MediaRef{PublicID: "placeholders/avatar", SecureURL: "https://static.lms.example.com/placeholders/avatar.jpg"}
)

// MediaStorage is the external media host boundary: store a blob under a
// folder hint, get back a stable identifier and a retrievable URL, delete by
// identifier.
type MediaStorage interface {
	UploadMedia(ctx context.Context, folder string, upload *Upload) (model.MediaRef, error)
	DeleteMedia(ctx context.Context, publicID string) error
}

// mediaService implements MediaStorage on S3.
type mediaService struct {
	s3Client *s3.Client
	baseURL  string
	bucket   string
	logger   zerolog.Logger
}

// NewMediaService creates a MediaStorage backed by an S3-compatible bucket.
func NewMediaService(s3Client *s3.Client, baseURL, bucket string, logger zerolog.Logger) MediaStorage {
	return &mediaService{
		s3Client: s3Client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		bucket:   bucket,
		logger:   logger.With().Str("service", "MediaService").Logger(),
	}
}

// UploadMedia stores the blob and returns its reference. The object key
// doubles as the public identifier used for later deletion.
func (s *mediaService) UploadMedia(ctx context.Context, folder string, upload *Upload) (model.MediaRef, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), path.Ext(upload.Filename))
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(upload.Data),
	}
	if upload.ContentType != "" {
		input.ContentType = aws.String(upload.ContentType)
	}
	if _, err := s.s3Client.PutObject(ctx, input); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload object")
		return model.MediaRef{}, fmt.Errorf("upload media: %w", err)
	}
	return model.MediaRef{
		PublicID:  key,
		SecureURL: fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key),
	}, nil
}

// DeleteMedia removes the object behind a reference.
func (s *mediaService) DeleteMedia(ctx context.Context, publicID string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", publicID).Msg("Failed to delete object")
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
