package models

import "testing"

func TestIconOrDefault(t *testing.T) {
	cases := map[string]string{
		"linkedin":  "linkedin",
		"instagram": "instagram",
		"message":   "message",
		"music":     "music",
		"video":     "video",
		"image":     "image",
		"link":      "link",
		"myspace":   "link",
		"":          "link",
	}
	for in, want := range cases {
		if got := IconOrDefault(in); got != want {
			t.Errorf("IconOrDefault(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLinkValidate(t *testing.T) {
	l := Link{Title: "  ", URL: ""}
	errs := l.Validate()
	if errs["title"] == "" || errs["url"] == "" {
		t.Errorf("expected title and url errors, got %v", errs)
	}

	l = Link{Title: "Site", URL: "https://example.com"}
	if errs := l.Validate(); len(errs) != 0 {
		t.Errorf("valid link rejected: %v", errs)
	}
}

func TestMediaTypeValid(t *testing.T) {
	for _, mt := range []MediaType{MediaMusic, MediaVideo, MediaImage} {
		if !mt.Valid() {
			t.Errorf("%q should be valid", mt)
		}
	}
	if MediaType("podcast").Valid() || MediaType("").Valid() {
		t.Error("unknown media types must be rejected")
	}
}

func TestThemeOrDefault(t *testing.T) {
	if got := ThemeOrDefault(ThemeDark); got != ThemeDark {
		t.Errorf("explicit preference lost: %q", got)
	}
	if got := ThemeOrDefault(""); got != ThemeLight {
		t.Errorf("absent preference should default to light, got %q", got)
	}
	if got := ThemeOrDefault("sepia"); got != ThemeLight {
		t.Errorf("unknown preference should default to light, got %q", got)
	}
}

func TestMergeLinkReplacesInPlace(t *testing.T) {
	links := []Link{
		{ID: "a", Title: "First", URL: "1"},
		{ID: "b", Title: "Second", URL: "2"},
		{ID: "c", Title: "Third", URL: "3"},
	}
	out := MergeLink(links, Link{ID: "b", Title: "Edited", URL: "2b"})
	if len(out) != 3 {
		t.Fatalf("replace must not change length, got %d", len(out))
	}
	if out[1].Title != "Edited" || out[0].ID != "a" || out[2].ID != "c" {
		t.Errorf("display order not preserved: %+v", out)
	}
}

func TestMergeLinkAppendsNew(t *testing.T) {
	out := MergeLink(nil, Link{ID: "a", Title: "First", URL: "1"})
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("append failed: %+v", out)
	}
}

func TestRemoveLink(t *testing.T) {
	links := []Link{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := RemoveLink(links, "b")
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("unexpected result: %+v", out)
	}
	if got := RemoveLink(out, "missing"); len(got) != 2 {
		t.Errorf("removing an absent id must be a no-op, got %+v", got)
	}
}

func TestUpdateProfileRequestValidate(t *testing.T) {
	empty := ""
	bad := Theme("sepia")
	req := UpdateProfileRequest{Username: &empty, Theme: &bad}
	errs := req.Validate()
	if errs["username"] == "" || errs["themePreference"] == "" {
		t.Errorf("expected username and theme errors, got %v", errs)
	}

	name := "ada"
	dark := ThemeDark
	req = UpdateProfileRequest{Username: &name, Theme: &dark}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("valid request rejected: %v", errs)
	}
}
