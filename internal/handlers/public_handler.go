package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linkplate/backend/internal/models"
	"github.com/linkplate/backend/internal/services"
)

// ProfileResolver is the lookup contract the public endpoint and the page
// shell depend on.
type ProfileResolver interface {
	ResolveByUsername(ctx context.Context, username string, budget time.Duration) (*models.Profile, error)
}

// PublicProfileHandler serves the unauthenticated profile read.
type PublicProfileHandler struct {
	resolver ProfileResolver
	budget   time.Duration
}

func NewPublicProfileHandler(resolver ProfileResolver, budget time.Duration) *PublicProfileHandler {
	return &PublicProfileHandler{resolver: resolver, budget: budget}
}

// GetProfile handles GET /api/profile/{username}. On success the body is the
// full profile document; failures use the {"error": ...} shape. A miss from
// both resolver tiers is a 404, never a 500.
func (h *PublicProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writePublicError(w, http.StatusBadRequest, "Username is required")
		return
	}

	prof, err := h.resolver.ResolveByUsername(r.Context(), username, h.budget)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writePublicError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Printf("[PublicProfile] username=%s error=%v", username, err)
		writePublicError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, prof)
}
