package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/conversations"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// maxAttachmentMemory bounds in-memory multipart parsing; larger parts spill
// to temp files.
const maxAttachmentMemory = 4 << 20

// ConversationService captures and lists chat exchanges.
type ConversationService interface {
	Capture(ctx context.Context, owner common.OwnerID, in conversations.CaptureInput, uploads []conversations.Upload) (*conversation.Conversation, error)
	ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error)
	AttachmentURL(ctx context.Context, key string) (string, error)
}

// ConversationHandler serves the conversation-log endpoints.
type ConversationHandler struct {
	svc    ConversationService
	logger logging.Logger
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(svc ConversationService, logger logging.Logger) *ConversationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConversationHandler{svc: svc, logger: logger.Named("conversation_handler")}
}

// Capture handles POST /api/v1/conversations.  JSON bodies capture text-only
// exchanges; multipart forms carry image attachments under "attachments"
// with the exchange fields as form values.
func (h *ConversationHandler) Capture(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var in conversations.CaptureInput
	var uploads []conversations.Upload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
			writeAppError(w, errors.Wrap(err, errors.CodeInvalidParam, "invalid multipart form"))
			return
		}
		in = conversations.CaptureInput{
			ClientMessage: r.FormValue("client_message"),
			SentReply:     r.FormValue("sent_reply"),
			MessageType:   r.FormValue("message_type"),
		}
		for _, header := range r.MultipartForm.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				writeAppError(w, errors.Wrap(err, errors.CodeInvalidParam, "unreadable attachment"))
				return
			}
			defer file.Close()
			uploads = append(uploads, conversations.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			})
		}
	} else if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, err)
		return
	}

	c, err := h.svc.Capture(r.Context(), owner, in, uploads)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// List handles GET /api/v1/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	cs, err := h.svc.ListRecent(r.Context(), owner, queryInt(r, "limit", 0))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// AttachmentURL handles GET /api/v1/conversations/attachments.  Owners may
// only resolve keys under their own prefix.
func (h *ConversationHandler) AttachmentURL(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeAppError(w, errors.InvalidParam("key query parameter is required"))
		return
	}
	if !strings.HasPrefix(key, string(owner)+"/") {
		writeAppError(w, errors.New(errors.CodeForbidden, "attachment belongs to another owner"))
		return
	}

	u, err := h.svc.AttachmentURL(r.Context(), key)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}
