package models

import "strings"

// MediaType classifies the single media attachment on a profile.
type MediaType string

const (
	MediaMusic MediaType = "music"
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaMusic, MediaVideo, MediaImage:
		return true
	}
	return false
}

// Theme is the rendering preference for the public page and the dashboard.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// ThemeOrDefault resolves an absent preference to light.
func ThemeOrDefault(t Theme) Theme {
	if t.Valid() {
		return t
	}
	return ThemeLight
}

// IconLink is the generic fallback icon.
const IconLink = "link"

var knownIcons = map[string]bool{
	IconLink:    true,
	"linkedin":  true,
	"instagram": true,
	"message":   true,
	"music":     true,
	"video":     true,
	"image":     true,
}

// IconOrDefault maps unrecognized icon names to the generic fallback
// instead of failing.
func IconOrDefault(icon string) string {
	if knownIcons[icon] {
		return icon
	}
	return IconLink
}

// Link is a single entry on a profile. Insertion order is display order.
type Link struct {
	ID    string `json:"id" bson:"id"`
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
	Icon  string `json:"icon" bson:"icon"`
}

// Validate mirrors the editor's save gating: empty title/url pairs never persist.
func (l *Link) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(l.Title) == "" {
		errors["title"] = "Title is required"
	}
	if strings.TrimSpace(l.URL) == "" {
		errors["url"] = "URL is required"
	}

	return errors
}

// Profile is the public-facing record for one user, stored in the "users"
// collection and keyed by the owning account id.
type Profile struct {
	ID          string    `json:"id" bson:"_id"`
	Username    string    `json:"username" bson:"username"`
	DisplayName string    `json:"displayName" bson:"display_name"`
	Bio         string    `json:"bio,omitempty" bson:"bio,omitempty"`
	Links       []Link    `json:"links" bson:"links"`
	MediaURL    string    `json:"mediaUrl,omitempty" bson:"media_url,omitempty"`
	MediaType   MediaType `json:"mediaType,omitempty" bson:"media_type,omitempty"`
	Theme       Theme     `json:"themePreference,omitempty" bson:"theme_preference,omitempty"`
}

// UpdateProfileRequest carries a partial profile edit. Nil fields are left
// untouched; there is no bulk replace.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Username    *string `json:"username"`
	Bio         *string `json:"bio"`
	Theme       *Theme  `json:"themePreference"`
}

func (r *UpdateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.DisplayName != nil && strings.TrimSpace(*r.DisplayName) == "" {
		errors["displayName"] = "Display name cannot be empty"
	}
	if r.Username != nil && strings.TrimSpace(*r.Username) == "" {
		errors["username"] = "Username cannot be empty"
	}
	if r.Theme != nil && !r.Theme.Valid() {
		errors["themePreference"] = "Theme must be light or dark"
	}

	return errors
}

// MergeLink replaces the link with the same id or appends a new one,
// preserving display order.
func MergeLink(links []Link, link Link) []Link {
	for i := range links {
		if links[i].ID == link.ID {
			links[i] = link
			return links
		}
	}
	return append(links, link)
}

// RemoveLink drops the link with the given id, if present.
func RemoveLink(links []Link, linkID string) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.ID != linkID {
			out = append(out, l)
		}
	}
	return out
}
