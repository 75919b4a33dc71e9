package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/linkplate/backend/internal/middleware"
	"github.com/linkplate/backend/internal/models"
	"github.com/linkplate/backend/internal/services"
)

// fakeStore implements services.ProfileStore in memory.
type fakeStore struct {
	profiles map[string]*models.Profile
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*models.Profile)}
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Profile, error) {
	prof, ok := f.profiles[id]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	cp := *prof
	return &cp, nil
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	for _, prof := range f.profiles {
		if prof.Username == username {
			cp := *prof
			return &cp, nil
		}
	}
	return nil, services.ErrProfileNotFound
}

func (f *fakeStore) Create(_ context.Context, id, username, displayName string) (*models.Profile, error) {
	if existing, ok := f.profiles[id]; ok {
		cp := *existing
		return &cp, nil
	}
	for _, prof := range f.profiles {
		if prof.Username == username {
			return nil, services.ErrUsernameTaken
		}
	}
	prof := &models.Profile{ID: id, Username: username, DisplayName: displayName, Links: []models.Link{}}
	f.profiles[id] = prof
	cp := *prof
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, id string, req *models.UpdateProfileRequest) error {
	prof, ok := f.profiles[id]
	if !ok {
		return services.ErrProfileNotFound
	}
	if req.Username != nil {
		for otherID, other := range f.profiles {
			if otherID != id && other.Username == *req.Username {
				return services.ErrUsernameTaken
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
	return nil
}

func (f *fakeStore) UpsertLink(_ context.Context, id string, link models.Link) error {
	prof, ok := f.profiles[id]
	if !ok {
		return services.ErrProfileNotFound
	}
	prof.Links = models.MergeLink(prof.Links, link)
	return nil
}

func (f *fakeStore) RemoveLink(_ context.Context, id, linkID string) error {
	prof, ok := f.profiles[id]
	if !ok {
		return services.ErrProfileNotFound
	}
	prof.Links = models.RemoveLink(prof.Links, linkID)
	return nil
}

func (f *fakeStore) SetMedia(_ context.Context, id, url string, mediaType models.MediaType) error {
	prof, ok := f.profiles[id]
	if !ok {
		return services.ErrProfileNotFound
	}
	prof.MediaURL = url
	prof.MediaType = mediaType
	return nil
}

type fakeAccounts struct {
	accounts map[string]*models.Account
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, services.ErrAccountNotFound
	}
	return account, nil
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func setupDashboard(t *testing.T) (*fakeStore, http.Handler) {
	t.Helper()
	store := newFakeStore()
	accounts := &fakeAccounts{accounts: map[string]*models.Account{
		"acct-1": {ID: "acct-1", Email: "ada@example.com"},
		"acct-2": {ID: "acct-2", Email: "ada@other.example.com"},
	}}
	h := NewDashboardHandler(store, accounts, nil, 10)

	r := chi.NewRouter()
	r.Get("/api/dashboard/profile", h.GetProfile)
	r.Put("/api/dashboard/profile", h.UpdateProfile)
	r.Post("/api/dashboard/profile/links", h.UpsertLink)
	r.Delete("/api/dashboard/profile/links/{linkId}", h.RemoveLink)
	r.Post("/api/dashboard/profile/media", h.UploadMedia)
	return store, r
}

func decodeData(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %s", body)
	}
	return resp.Data
}

func TestDashboardProvisionsProfileFromEmail(t *testing.T) {
	_, router := setupDashboard(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/dashboard/profile", nil, "acct-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data := decodeData(t, rr.Body.Bytes())
	if data["username"] != "ada" || data["displayName"] != "ada" {
		t.Errorf("default profile should use the email local part, got %+v", data)
	}
}

func TestDashboardProvisionSuffixesTakenDefaultUsername(t *testing.T) {
	store, router := setupDashboard(t)
	// acct-2's email local part is also "ada".
	if _, err := store.Create(context.Background(), "acct-1", "ada", "ada"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/dashboard/profile", nil, "acct-2"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data := decodeData(t, rr.Body.Bytes())
	username, _ := data["username"].(string)
	if !strings.HasPrefix(username, "ada-") || username == "ada" {
		t.Errorf("expected suffixed default username, got %q", username)
	}
}

func TestDashboardGetReturnsExistingProfileUnchanged(t *testing.T) {
	store, router := setupDashboard(t)
	if _, err := store.Create(context.Background(), "acct-1", "custom", "Custom Name"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/dashboard/profile", nil, "acct-1"))

	data := decodeData(t, rr.Body.Bytes())
	if data["username"] != "custom" {
		t.Errorf("existing profile was altered: %+v", data)
	}
}

func TestDashboardUpdateUsernameConflictIs409(t *testing.T) {
	store, router := setupDashboard(t)
	store.Create(context.Background(), "acct-1", "ada", "Ada")
	store.Create(context.Background(), "acct-2", "grace", "Grace")

	body, _ := json.Marshal(map[string]string{"username": "ada"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPut, "/api/dashboard/profile", body, "acct-2"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDashboardUpsertLinkRejectsEmptyPair(t *testing.T) {
	store, router := setupDashboard(t)
	store.Create(context.Background(), "acct-1", "ada", "Ada")

	body, _ := json.Marshal(map[string]string{"title": "", "url": ""})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/dashboard/profile/links", body, "acct-1"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if prof, _ := store.GetByID(context.Background(), "acct-1"); len(prof.Links) != 0 {
		t.Errorf("invalid link was persisted: %+v", prof.Links)
	}
}

func TestDashboardUpsertLinkNormalizesUnknownIcon(t *testing.T) {
	store, router := setupDashboard(t)
	store.Create(context.Background(), "acct-1", "ada", "Ada")

	body, _ := json.Marshal(map[string]string{"title": "Site", "url": "https://example.com", "icon": "myspace"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/dashboard/profile/links", body, "acct-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	prof, _ := store.GetByID(context.Background(), "acct-1")
	if len(prof.Links) != 1 || prof.Links[0].Icon != models.IconLink {
		t.Errorf("unknown icon should fall back to %q, got %+v", models.IconLink, prof.Links)
	}
	if prof.Links[0].ID == "" {
		t.Errorf("link id should be assigned server-side")
	}
}

func TestDashboardRemoveLink(t *testing.T) {
	store, router := setupDashboard(t)
	store.Create(context.Background(), "acct-1", "ada", "Ada")
	store.UpsertLink(context.Background(), "acct-1", models.Link{ID: "l1", Title: "a", URL: "b", Icon: "link"})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodDelete, "/api/dashboard/profile/links/l1", nil, "acct-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if prof, _ := store.GetByID(context.Background(), "acct-1"); len(prof.Links) != 0 {
		t.Errorf("link not removed: %+v", prof.Links)
	}
}

func TestDashboardRequiresAuth(t *testing.T) {
	_, router := setupDashboard(t)

	rr := httptest.NewRecorder()
	// No user id in context.
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/profile", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestDashboardMediaUnconfiguredIs503(t *testing.T) {
	_, router := setupDashboard(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/dashboard/profile/media", nil, "acct-1"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when media storage is not configured, got %d", rr.Code)
	}
}
