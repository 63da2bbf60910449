package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
)

type objectAPIMock struct {
	bucketExistsFn func(ctx context.Context, bucket string) (bool, error)
	makeBucketFn   func(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	putObjectFn    func(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	presignedGetFn func(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

func (m *objectAPIMock) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.bucketExistsFn(ctx, bucket)
}

func (m *objectAPIMock) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.makeBucketFn(ctx, bucket, opts)
}

func (m *objectAPIMock) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.putObjectFn(ctx, bucket, object, reader, size, opts)
}

func (m *objectAPIMock) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error) {
	return m.presignedGetFn(ctx, bucket, object, expiry, params)
}

func testStore(api objectAPI) *Store {
	cfg := config.MinIOConfig{Bucket: "test-attachments", MaxUploadSize: 1024, PresignExpiry: time.Minute}
	return newStoreWithClient(api, cfg, logging.NewNopLogger())
}

func TestPutStoresUnderOwnerKey(t *testing.T) {
	var gotBucket, gotObject, gotContentType string
	var gotBody []byte
	api := &objectAPIMock{
		putObjectFn: func(_ context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
			gotBucket, gotObject, gotContentType = bucket, object, opts.ContentType
			gotBody, _ = io.ReadAll(reader)
			return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
		},
	}
	s := testStore(api)

	payload := []byte("fake png bytes")
	key, err := s.Put(context.Background(), "u-1", "mockup.PNG", "image/png", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, "test-attachments", gotBucket)
	assert.Equal(t, key, gotObject)
	assert.True(t, strings.HasPrefix(key, "u-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, payload, gotBody)
}

func TestPutRejectsInvalidUploads(t *testing.T) {
	api := &objectAPIMock{
		putObjectFn: func(context.Context, string, string, io.Reader, int64, minio.PutObjectOptions) (minio.UploadInfo, error) {
			t.Fatal("storage should not be reached")
			return minio.UploadInfo{}, nil
		},
	}
	s := testStore(api)
	ctx := context.Background()
	body := strings.NewReader("x")

	_, err := s.Put(ctx, "", "a.png", "image/png", 1, body)
	assert.Error(t, err, "missing owner")

	_, err = s.Put(ctx, "u-1", "a.png", "image/png", 0, body)
	assert.Error(t, err, "zero size")

	_, err = s.Put(ctx, "u-1", "a.png", "image/png", 4096, body)
	assert.Error(t, err, "over size limit")

	_, err = s.Put(ctx, "u-1", "a.pdf", "application/pdf", 1, body)
	assert.Error(t, err, "unsupported content type")
}

func TestPresignGetBuildsURL(t *testing.T) {
	api := &objectAPIMock{
		presignedGetFn: func(_ context.Context, bucket, object string, expiry time.Duration, _ url.Values) (*url.URL, error) {
			assert.Equal(t, "test-attachments", bucket)
			assert.Equal(t, time.Minute, expiry)
			return url.Parse("https://minio.local/" + bucket + "/" + object + "?sig=abc")
		},
	}
	s := testStore(api)

	u, err := s.PresignGet(context.Background(), "u-1/xyz.png")
	require.NoError(t, err)
	assert.Contains(t, u, "u-1/xyz.png")

	_, err = s.PresignGet(context.Background(), "")
	assert.Error(t, err)
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	created := false
	api := &objectAPIMock{
		bucketExistsFn: func(context.Context, string) (bool, error) { return false, nil },
		makeBucketFn: func(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
			created = true
			assert.Equal(t, "test-attachments", bucket)
			return nil
		},
	}
	s := testStore(api)
	require.NoError(t, s.ensureBucket(context.Background()))
	assert.True(t, created)
}
