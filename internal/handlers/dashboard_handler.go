package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linkplate/backend/internal/middleware"
	"github.com/linkplate/backend/internal/models"
	"github.com/linkplate/backend/internal/services"
)

// AccountReader is the slice of the account service the dashboard needs to
// auto-provision a profile.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// DashboardHandler is the owner-only editing surface. All routes sit behind
// the JWT middleware.
type DashboardHandler struct {
	store     services.ProfileStore
	accounts  AccountReader
	media     *services.MediaService
	maxSizeMB int64
}

func NewDashboardHandler(store services.ProfileStore, accounts AccountReader, media *services.MediaService, maxSizeMB int64) *DashboardHandler {
	return &DashboardHandler{
		store:     store,
		accounts:  accounts,
		media:     media,
		maxSizeMB: maxSizeMB,
	}
}

// GetProfile returns the owner's profile, lazily provisioning one from the
// account email's local part the first time the dashboard loads.
func (h *DashboardHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.store.GetByID(ctx, userID)
	if err == nil {
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
		return
	}
	if !errors.Is(err, services.ErrProfileNotFound) {
		log.Printf("[Dashboard] GetProfile user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
		return
	}

	account, err := h.accounts.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[Dashboard] GetProfile account user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
		return
	}

	local := emailLocalPart(account.Email)
	prof, err = h.store.Create(ctx, userID, local, local)
	if errors.Is(err, services.ErrUsernameTaken) {
		// Default handle collision: suffix with a short random id.
		suffixed := local + "-" + uuid.NewString()[:8]
		prof, err = h.store.Create(ctx, userID, suffixed, local)
	}
	if err != nil {
		log.Printf("[Dashboard] provision user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create profile"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// UpdateProfile applies a partial edit. A username change that collides with
// the index is a 409 surfaced to the form.
func (h *DashboardHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Update(ctx, userID, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Username already taken"))
		case errors.Is(err, services.ErrProfileNotFound):
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
		default:
			log.Printf("[Dashboard] UpdateProfile user=%s error=%v", userID, err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update profile"))
		}
		return
	}

	prof, err := h.store.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[Dashboard] UpdateProfile reload user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// UpsertLink adds a link or replaces the one with the same id.
func (h *DashboardHandler) UpsertLink(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var link models.Link
	if err := json.NewDecoder(r.Body).Decode(&link); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := link.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.Icon = models.IconOrDefault(link.Icon)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.UpsertLink(ctx, userID, link); err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
			return
		}
		log.Printf("[Dashboard] UpsertLink user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save link"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(link))
}

func (h *DashboardHandler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	linkID := chi.URLParam(r, "linkId")
	if linkID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing linkId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.RemoveLink(ctx, userID, linkID); err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
			return
		}
		log.Printf("[Dashboard] RemoveLink user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to remove link"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Link removed"}))
}

// UploadMedia stores the file in the bucket, then records it on the profile.
// The two writes are independently fallible and not atomic.
func (h *DashboardHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	if h.media == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Media uploads not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	mediaType := models.MediaType(r.FormValue("mediaType"))
	if !mediaType.Valid() {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("mediaType must be music, video or image"))
		return
	}

	file, header, err := r.FormFile("media")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No media file provided"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !contentTypeMatches(mediaType, contentType) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File content type does not match mediaType"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	url, err := h.media.Upload(ctx, userID, header.Filename, contentType, mediaType, file)
	if err != nil {
		if errors.Is(err, services.ErrMediaRejected) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Media rejected: violates community guidelines"))
			return
		}
		log.Printf("[Dashboard] UploadMedia user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to upload media"))
		return
	}

	if err := h.store.SetMedia(ctx, userID, url, mediaType); err != nil {
		// Bytes are stored but unreferenced; the next successful upload
		// supersedes them.
		log.Printf("[Dashboard] UploadMedia record user=%s url=%s error=%v", userID, url, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to record media"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.MediaUploadResponse{
		URL:       url,
		MediaType: mediaType,
	}))
}

func contentTypeMatches(mediaType models.MediaType, contentType string) bool {
	switch mediaType {
	case models.MediaMusic:
		return strings.HasPrefix(contentType, "audio/")
	case models.MediaVideo:
		return strings.HasPrefix(contentType, "video/")
	case models.MediaImage:
		return strings.HasPrefix(contentType, "image/")
	}
	return false
}

func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
