package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linkplate/backend/internal/models"
	"github.com/linkplate/backend/internal/services"
)

const defaultPageTitle = "Linkplate Profile"

var pageTmpl = template.Must(template.New("profile").Parse(`<!doctype html>
<html lang="en" class="theme-{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
</head>
<body data-username="{{.Username}}">
<main id="profile-root">
<p class="loading">Loading profile…</p>
</main>
<script src="/static/profile.js" defer></script>
</body>
</html>
`))

type pageData struct {
	Title       string
	Description string
	Username    string
	Theme       models.Theme
}

// PageHandler renders the public profile page shell. The resolver call here
// is best-effort metadata generation under a short budget; the shell ships
// either way and the in-page loader fetches the profile itself.
type PageHandler struct {
	resolver ProfileResolver
	budget   time.Duration
}

func NewPageHandler(resolver ProfileResolver, budget time.Duration) *PageHandler {
	return &PageHandler{resolver: resolver, budget: budget}
}

func (h *PageHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))

	data := pageData{
		Title:       defaultPageTitle,
		Description: "Member profile",
		Username:    username,
		Theme:       models.ThemeLight,
	}

	if username != "" {
		prof, err := h.resolver.ResolveByUsername(r.Context(), username, h.budget)
		switch {
		case err == nil:
			data.Title = prof.DisplayName + " | Member"
			data.Description = "Member profile for " + prof.DisplayName
			data.Theme = models.ThemeOrDefault(prof.Theme)
		case errors.Is(err, services.ErrProfileNotFound):
			data.Title = "Profile Not Found | Linkplate"
		default:
			// Metadata is best-effort; a miss or timeout must not block
			// shell delivery.
			log.Printf("[Page] metadata lookup username=%s err=%v", username, err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		log.Printf("[Page] render username=%s err=%v", username, err)
	}
}
