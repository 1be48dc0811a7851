package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	exportPathPrefix      = "exports"
	exportPresignedURLTTL = 15 * time.Minute
)

var (
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
	ErrInvalidObjectKey     = errors.New("invalid object key")
)

// ExportStorage archives generated export files and hands out short-lived
// download links, for deployments that prefer async delivery over inline
// streaming.
type ExportStorage interface {
	// StoreExport uploads one export payload and returns the object key.
	// Size may be -1 when unknown; the payload streams through.
	StoreExport(ctx context.Context, adminCode, filename, contentType string, payload io.Reader, size int64) (string, error)

	// PresignedExportURL generates a time-limited GET URL for a stored export.
	PresignedExportURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOExportStorage implements ExportStorage on MinIO/S3-compatible storage.
type MinIOExportStorage struct {
	client     *minio.Client
	bucketName string
	initOnce   sync.Once
	initErr    error
}

// NewMinIOExportStorage creates a MinIO-backed export store. Bucket creation
// is deferred until the first operation to avoid blocking app startup.
func NewMinIOExportStorage(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOExportStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOExportStorage{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (s *MinIOExportStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinIOExportStorage) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}

	return nil
}

func (s *MinIOExportStorage) StoreExport(ctx context.Context, adminCode, filename, contentType string, payload io.Reader, size int64) (string, error) {
	adminCode = strings.TrimSpace(adminCode)
	filename = strings.TrimSpace(filename)
	if adminCode == "" || filename == "" {
		return "", fmt.Errorf("%w: admin code and filename are required", ErrUploadFailed)
	}
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", fmt.Errorf("%w: filename must be a bare name", ErrUploadFailed)
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/%s/%s/%s", exportPathPrefix, adminCode, uuid.New().String(), filename)
	metadata := map[string]string{
		"Admin-Code":  adminCode,
		"Exported-At": time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, payload, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return objectKey, nil
}

func (s *MinIOExportStorage) PresignedExportURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrInvalidObjectKey)
	}
	if strings.Contains(objectKey, "..") || !strings.HasPrefix(objectKey, exportPathPrefix+"/") {
		return "", ErrInvalidObjectKey
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, exportPresignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}

	return presignedURL.String(), nil
}
