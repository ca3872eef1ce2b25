package services

import (
	"strings"

	"github.com/google/uuid"
)

// Top-level route names a slug must never shadow.
var reservedSlugs = map[string]struct{}{
	"admin":  {},
	"api":    {},
	"health": {},
	"login":  {},
	"logout": {},
	"static": {},
}

// Slugify derives a URL-safe slug from a title: lowercase, runs of
// non-alphanumerics collapsed to single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "auction"
	}
	return slug
}

// Disambiguate appends a short random suffix for slugs that collide with
// an existing auction or a reserved route.
func Disambiguate(slug string) string {
	return slug + "-" + uuid.NewString()[:8]
}

// SlugReserved reports whether the slug shadows a reserved route name.
func SlugReserved(slug string) bool {
	_, ok := reservedSlugs[slug]
	return ok
}
