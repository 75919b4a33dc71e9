package services

import (
	"context"
	"sync"

	"github.com/linkplate/backend/internal/models"
	"github.com/linkplate/backend/internal/storage"
)

// FileProfileService is a ProfileStore over a local JSON file, used when no
// Mongo URI is configured (development) and by tests. Same contract as the
// Mongo store, including the check-then-act username uniqueness.
type FileProfileService struct {
	mu       sync.RWMutex
	file     *storage.ProfileFile
	profiles map[string]models.Profile
}

func NewFileProfileService(dataDir string) (*FileProfileService, error) {
	file, err := storage.NewProfileFile(dataDir, "profiles.json")
	if err != nil {
		return nil, err
	}
	profiles, err := file.Load()
	if err != nil {
		return nil, err
	}
	return &FileProfileService{
		file:     file,
		profiles: profiles,
	}, nil
}

func (s *FileProfileService) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prof, ok := s.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	normalize(&prof)
	return &prof, nil
}

func (s *FileProfileService) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, prof := range s.profiles {
		if prof.Username == username {
			p := prof
			normalize(&p)
			return &p, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (s *FileProfileService) Create(_ context.Context, id, username, displayName string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[id]; ok {
		p := existing
		normalize(&p)
		return &p, nil
	}
	for _, prof := range s.profiles {
		if prof.Username == username {
			return nil, ErrUsernameTaken
		}
	}

	prof := models.Profile{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		Links:       []models.Link{},
	}
	s.profiles[id] = prof
	if err := s.file.Save(s.profiles); err != nil {
		delete(s.profiles, id)
		return nil, err
	}
	return &prof, nil
}

func (s *FileProfileService) Update(_ context.Context, id string, req *models.UpdateProfileRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prof, ok := s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}

	if req.Username != nil {
		for otherID, other := range s.profiles {
			if otherID != id && other.Username == *req.Username {
				return ErrUsernameTaken
			}
		}
		prof.Username = *req.Username
	}
	if req.DisplayName != nil {
		prof.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		prof.Bio = *req.Bio
	}
	if req.Theme != nil {
		prof.Theme = *req.Theme
	}

	s.profiles[id] = prof
	return s.file.Save(s.profiles)
}

func (s *FileProfileService) UpsertLink(_ context.Context, id string, link models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prof, ok := s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	prof.Links = models.MergeLink(prof.Links, link)
	s.profiles[id] = prof
	return s.file.Save(s.profiles)
}

func (s *FileProfileService) RemoveLink(_ context.Context, id, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prof, ok := s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	prof.Links = models.RemoveLink(prof.Links, linkID)
	s.profiles[id] = prof
	return s.file.Save(s.profiles)
}

func (s *FileProfileService) SetMedia(_ context.Context, id, url string, mediaType models.MediaType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prof, ok := s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	prof.MediaURL = url
	prof.MediaType = mediaType
	s.profiles[id] = prof
	return s.file.Save(s.profiles)
}
