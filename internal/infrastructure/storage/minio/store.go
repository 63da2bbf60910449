// Package minio stores conversation image attachments.  Uploads are keyed
// under the owner so a bucket listing never mixes users, and downloads go
// through short-lived presigned URLs rather than proxying bytes through the
// API.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

const (
	defaultBucket        = "chatbuddy-attachments"
	defaultPresignExpiry = 15 * time.Minute
	defaultMaxUploadSize = 8 << 20 // 8 MiB
)

// objectAPI is the slice of the minio client the store uses (for testing).
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

// allowedContentTypes limits attachments to the image formats clients
// actually paste into order chats.
var allowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Store implements the conversation attachment boundary on MinIO.
type Store struct {
	client        objectAPI
	bucket        string
	presignExpiry time.Duration
	maxUploadSize int64
	logger        logging.Logger
}

// NewStore connects to MinIO and ensures the attachments bucket exists.
func NewStore(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.InvalidParam("minio requires an endpoint")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create minio client")
	}

	s := newStoreWithClient(client, cfg, logger)
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	logger.Info("minio attachment store ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", s.bucket),
	)
	return s, nil
}

// newStoreWithClient injects the object API (for testing).
func newStoreWithClient(client objectAPI, cfg config.MinIOConfig, logger logging.Logger) *Store {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	maxSize := cfg.MaxUploadSize
	if maxSize <= 0 {
		maxSize = defaultMaxUploadSize
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		client:        client,
		bucket:        bucket,
		presignExpiry: expiry,
		maxUploadSize: maxSize,
		logger:        logger.Named("attachment_store"),
	}
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "check attachments bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "create attachments bucket")
	}
	return nil
}

// Put stores one attachment and returns its object key.  The key embeds the
// owner and a fresh UUID; the original filename survives only as the
// extension.
func (s *Store) Put(ctx context.Context, owner common.OwnerID, filename, contentType string, size int64, body io.Reader) (string, error) {
	if owner == "" {
		return "", errors.InvalidParam("attachment requires an owner")
	}
	if size <= 0 {
		return "", errors.InvalidParam("attachment size must be positive")
	}
	if size > s.maxUploadSize {
		return "", errors.InvalidParam(fmt.Sprintf("attachment exceeds %d byte limit", s.maxUploadSize))
	}
	if !allowedContentTypes[contentType] {
		return "", errors.InvalidParam("unsupported attachment content type: " + contentType)
	}

	key := attachmentKey(owner, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, io.LimitReader(body, size), size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeServiceUnavailable, "store attachment")
	}

	s.logger.Debug("stored attachment",
		logging.String("owner_id", string(owner)),
		logging.String("key", key),
		logging.Int64("size", size),
	)
	return key, nil
}

// PresignGet returns a time-limited download URL for a stored attachment.
func (s *Store) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.InvalidParam("attachment key is required")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeServiceUnavailable, "presign attachment")
	}
	return u.String(), nil
}

func attachmentKey(owner common.OwnerID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", owner, uuid.NewString(), ext)
}
