package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/conversations"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/middleware"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type conversationSvcMock struct {
	captureFn       func(ctx context.Context, owner common.OwnerID, in conversations.CaptureInput, uploads []conversations.Upload) (*conversation.Conversation, error)
	listRecentFn    func(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error)
	attachmentURLFn func(ctx context.Context, key string) (string, error)
}

func (m *conversationSvcMock) Capture(ctx context.Context, owner common.OwnerID, in conversations.CaptureInput, uploads []conversations.Upload) (*conversation.Conversation, error) {
	return m.captureFn(ctx, owner, in, uploads)
}

func (m *conversationSvcMock) ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error) {
	return m.listRecentFn(ctx, owner, limit)
}

func (m *conversationSvcMock) AttachmentURL(ctx context.Context, key string) (string, error) {
	return m.attachmentURLFn(ctx, key)
}

func mountConversationRoutes(h *ConversationHandler, owner string) http.Handler {
	r := chi.NewRouter()
	if owner != "" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.ContextWithOwner(req.Context(), common.OwnerID(owner))))
			})
		})
	}
	r.Post("/conversations", h.Capture)
	r.Get("/conversations", h.List)
	r.Get("/conversations/attachments", h.AttachmentURL)
	return r
}

func TestConversationCaptureJSON(t *testing.T) {
	var gotIn conversations.CaptureInput
	svc := &conversationSvcMock{captureFn: func(_ context.Context, owner common.OwnerID, in conversations.CaptureInput, uploads []conversations.Upload) (*conversation.Conversation, error) {
		gotIn = in
		require.Empty(t, uploads)
		return &conversation.Conversation{ID: "c-1", OwnerID: owner, ClientMessage: in.ClientMessage}, nil
	}}
	router := mountConversationRoutes(NewConversationHandler(svc, logging.NewNopLogger()), "u-1")

	body := `{"client_message":"when can you deliver?","sent_reply":"by Friday","message_type":"delivery"}`
	req := httptest.NewRequest("POST", "/conversations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "by Friday", gotIn.SentReply)
	assert.Equal(t, "delivery", gotIn.MessageType)
	assert.Contains(t, rec.Body.String(), `"id":"c-1"`)
}

func TestConversationCaptureMultipart(t *testing.T) {
	var gotIn conversations.CaptureInput
	var gotUploads []conversations.Upload
	var gotBody string
	svc := &conversationSvcMock{captureFn: func(_ context.Context, owner common.OwnerID, in conversations.CaptureInput, uploads []conversations.Upload) (*conversation.Conversation, error) {
		gotIn, gotUploads = in, uploads
		if len(uploads) > 0 {
			b, _ := io.ReadAll(uploads[0].Body)
			gotBody = string(b)
		}
		return &conversation.Conversation{ID: "c-2", OwnerID: owner, AttachmentKeys: []string{"u-1/abc.png"}}, nil
	}}
	router := mountConversationRoutes(NewConversationHandler(svc, logging.NewNopLogger()), "u-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("client_message", "can you match this style?"))
	require.NoError(t, mw.WriteField("message_type", "general"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="attachments"; filename="ref.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/conversations", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "can you match this style?", gotIn.ClientMessage)
	require.Len(t, gotUploads, 1)
	assert.Equal(t, "ref.png", gotUploads[0].Filename)
	assert.Equal(t, "image/png", gotUploads[0].ContentType)
	assert.Equal(t, "png-bytes", gotBody)
}

func TestConversationList(t *testing.T) {
	var gotLimit int
	svc := &conversationSvcMock{listRecentFn: func(_ context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error) {
		gotLimit = limit
		return []*conversation.Conversation{{ID: "c-1", OwnerID: owner}}, nil
	}}
	router := mountConversationRoutes(NewConversationHandler(svc, logging.NewNopLogger()), "u-1")

	req := httptest.NewRequest("GET", "/conversations?limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)
}

func TestConversationAttachmentURL(t *testing.T) {
	svc := &conversationSvcMock{attachmentURLFn: func(_ context.Context, key string) (string, error) {
		return "https://minio.local/chatbuddy-attachments/" + key + "?sig=x", nil
	}}
	router := mountConversationRoutes(NewConversationHandler(svc, logging.NewNopLogger()), "u-1")

	req := httptest.NewRequest("GET", "/conversations/attachments?key=u-1/abc.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `u-1/abc.png`)
}

func TestConversationAttachmentURLForeignKeyForbidden(t *testing.T) {
	router := mountConversationRoutes(NewConversationHandler(&conversationSvcMock{}, logging.NewNopLogger()), "u-1")

	req := httptest.NewRequest("GET", "/conversations/attachments?key=u-2/abc.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConversationAttachmentURLRequiresKey(t *testing.T) {
	router := mountConversationRoutes(NewConversationHandler(&conversationSvcMock{}, logging.NewNopLogger()), "u-1")

	req := httptest.NewRequest("GET", "/conversations/attachments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversationRequiresIdentity(t *testing.T) {
	router := mountConversationRoutes(NewConversationHandler(&conversationSvcMock{}, logging.NewNopLogger()), "")

	req := httptest.NewRequest("GET", "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
