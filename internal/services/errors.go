package services

import (
	"context"
	"errors"

	"github.com/linkplate/backend/internal/models"
)

var (
	// ErrProfileNotFound is a normal lookup outcome, not a failure.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUsernameTaken is the conflict surfaced to the owner-facing form.
	ErrUsernameTaken = errors.New("username already taken")

	ErrAccountNotFound   = errors.New("account not found")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")

	ErrMediaNotConfigured = errors.New("media storage not configured")
	ErrMediaRejected      = errors.New("media rejected: violates community guidelines")
)

// ProfileReader is the read surface shared by the unprivileged store and the
// privileged accessor; the Resolver arbitrates between two of these.
type ProfileReader interface {
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// ProfileStore is the full read/write surface of the profile document store.
type ProfileStore interface {
	ProfileReader
	Create(ctx context.Context, id, username, displayName string) (*models.Profile, error)
	Update(ctx context.Context, id string, req *models.UpdateProfileRequest) error
	UpsertLink(ctx context.Context, id string, link models.Link) error
	RemoveLink(ctx context.Context, id, linkID string) error
	SetMedia(ctx context.Context, id, url string, mediaType models.MediaType) error
}
