package conversations

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type repoMock struct {
	createFn     func(ctx context.Context, c *conversation.Conversation) error
	listRecentFn func(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error)
}

func (m *repoMock) Create(ctx context.Context, c *conversation.Conversation) error {
	return m.createFn(ctx, c)
}

func (m *repoMock) ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error) {
	return m.listRecentFn(ctx, owner, limit)
}

type storeMock struct {
	putFn     func(ctx context.Context, owner common.OwnerID, filename, contentType string, size int64, body io.Reader) (string, error)
	presignFn func(ctx context.Context, key string) (string, error)
}

func (m *storeMock) Put(ctx context.Context, owner common.OwnerID, filename, contentType string, size int64, body io.Reader) (string, error) {
	return m.putFn(ctx, owner, filename, contentType, size, body)
}

func (m *storeMock) PresignGet(ctx context.Context, key string) (string, error) {
	return m.presignFn(ctx, key)
}

func newTestService(repo *repoMock, store conversation.AttachmentStore) *Service {
	s := NewService(repo, store, logging.NewNopLogger())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestCaptureDerivesMessageTypeAndStoresAttachments(t *testing.T) {
	var created *conversation.Conversation
	repo := &repoMock{createFn: func(_ context.Context, c *conversation.Conversation) error {
		created = c
		return nil
	}}
	store := &storeMock{putFn: func(_ context.Context, owner common.OwnerID, filename, contentType string, size int64, body io.Reader) (string, error) {
		assert.Equal(t, common.OwnerID("u-1"), owner)
		return "u-1/abc.png", nil
	}}

	got, err := newTestService(repo, store).Capture(context.Background(), "u-1", CaptureInput{
		ClientMessage: "here are the final files for your order, let me know!",
		SentReply:     "Thanks, delivered!",
	}, []Upload{{Filename: "shot.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("0123456789")}})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "delivery", got.MessageType)
	assert.Equal(t, []string{"u-1/abc.png"}, got.AttachmentKeys)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.NotEmpty(t, got.ID)
}

func TestCaptureKeepsDeclaredMessageType(t *testing.T) {
	repo := &repoMock{createFn: func(context.Context, *conversation.Conversation) error { return nil }}
	got, err := newTestService(repo, nil).Capture(context.Background(), "u-1", CaptureInput{
		ClientMessage: "any update?",
		MessageType:   "negotiation",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "negotiation", got.MessageType)
}

func TestCaptureValidates(t *testing.T) {
	repo := &repoMock{createFn: func(context.Context, *conversation.Conversation) error {
		t.Fatal("repo should not be reached")
		return nil
	}}
	_, err := newTestService(repo, nil).Capture(context.Background(), "u-1", CaptureInput{ClientMessage: "   "}, nil)
	assert.Error(t, err)
}

func TestCaptureFailsUploadsWithoutStore(t *testing.T) {
	repo := &repoMock{createFn: func(context.Context, *conversation.Conversation) error { return nil }}
	_, err := newTestService(repo, nil).Capture(context.Background(), "u-1", CaptureInput{ClientMessage: "hello"},
		[]Upload{{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")}})
	assert.Error(t, err)
}

func TestCaptureAbortsOnUploadFailure(t *testing.T) {
	repo := &repoMock{createFn: func(context.Context, *conversation.Conversation) error {
		t.Fatal("repo should not be reached after upload failure")
		return nil
	}}
	store := &storeMock{putFn: func(context.Context, common.OwnerID, string, string, int64, io.Reader) (string, error) {
		return "", assert.AnError
	}}
	_, err := newTestService(repo, store).Capture(context.Background(), "u-1", CaptureInput{ClientMessage: "hello"},
		[]Upload{{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")}})
	assert.Error(t, err)
}

func TestListRecentDefaultsLimit(t *testing.T) {
	var gotLimit int
	repo := &repoMock{listRecentFn: func(_ context.Context, _ common.OwnerID, limit int) ([]*conversation.Conversation, error) {
		gotLimit = limit
		return nil, nil
	}}
	_, err := newTestService(repo, nil).ListRecent(context.Background(), "u-1", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, gotLimit)
}

func TestAttachmentURL(t *testing.T) {
	store := &storeMock{presignFn: func(_ context.Context, key string) (string, error) {
		return "https://minio.local/bucket/" + key, nil
	}}
	s := newTestService(&repoMock{}, store)

	u, err := s.AttachmentURL(context.Background(), "u-1/abc.png")
	require.NoError(t, err)
	assert.Contains(t, u, "u-1/abc.png")

	_, err = newTestService(&repoMock{}, nil).AttachmentURL(context.Background(), "k")
	assert.Error(t, err)
}
