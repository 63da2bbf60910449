package handlers

import (
	"net/http"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/user"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

// ProfileHandler serves the freelancer-profile endpoints.  The profile is a
// single row per owner, so the surface is just get and upsert.
type ProfileHandler struct {
	repo   user.Repository
	logger logging.Logger
	now    func() time.Time
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(repo user.Repository, logger logging.Logger) *ProfileHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProfileHandler{repo: repo, logger: logger.Named("profile_handler"), now: time.Now}
}

// ProfileRequest is the body for PUT /api/v1/profile.
type ProfileRequest struct {
	DisplayName   string   `json:"display_name"`
	ServiceArea   string   `json:"service_area"`
	Specialties   []string `json:"specialties"`
	ResponseStyle string   `json:"response_style"`
}

// Get handles GET /api/v1/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	p, err := h.repo.Get(r.Context(), owner)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Put handles PUT /api/v1/profile.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.DisplayName == "" && req.ServiceArea == "" {
		writeAppError(w, errors.InvalidParam("profile requires a display name or service area"))
		return
	}

	p := &user.Profile{
		OwnerID:       owner,
		DisplayName:   req.DisplayName,
		ServiceArea:   req.ServiceArea,
		Specialties:   req.Specialties,
		ResponseStyle: req.ResponseStyle,
		UpdatedAt:     h.now().UTC(),
	}
	if err := h.repo.Upsert(r.Context(), p); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
