package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ImageUpload is an image received from a client.
type ImageUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ObjectPutter is the part of the S3 client the image service needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageService stores restaurant, dish and suggestion images in S3
type ImageService struct {
	client ObjectPutter
	bucket string
	log    *zap.Logger
}

// NewImageService creates a new ImageService instance
func NewImageService(client ObjectPutter, bucket string, log *zap.Logger) *ImageService {
	return &ImageService{client: client, bucket: bucket, log: logging.OrNop(log)}
}

// contentType trusts the declared type only when the bytes agree it is an image.
func (u *ImageUpload) contentType() string {
	sniffed := http.DetectContentType(u.Data)
	declared := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	if strings.HasPrefix(declared, "image/") && strings.HasPrefix(sniffed, "image/") {
		return declared
	}
	return sniffed
}

func (u *ImageUpload) extension(contentType string) string {
	if ext, ok := imageExtensions[contentType]; ok {
		return ext
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), "."); ext != "" {
		return ext
	}
	return "img"
}

// Upload validates the image and stores it under prefix, returning its public URL.
func (s *ImageService) Upload(ctx context.Context, upload *ImageUpload, prefix string) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", invalid("image is empty")
	}
	if len(upload.Data) > MaxImageBytes {
		return "", invalid("image exceeds %d MB", MaxImageBytes>>20)
	}
	ct := upload.contentType()
	if !strings.HasPrefix(ct, "image/") {
		return "", invalid("file is not an image (%s)", ct)
	}
	if s.client == nil {
		return "", fmt.Errorf("image storage is not configured")
	}

	key := fmt.Sprintf("%s/%s.%s", strings.Trim(prefix, "/"), uuid.New(), upload.extension(ct))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(upload.Data),
		ContentType: aws.String(ct),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	s.log.Info("Uploaded image", zap.String("url", publicURL), zap.Int("bytes", len(upload.Data)))
	return publicURL, nil
}
