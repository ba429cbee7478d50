package storefront

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// GenerateSlug turns a shop name into a URL slug
func GenerateSlug(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugExistsFunc reports whether a slug is already taken
type SlugExistsFunc func(ctx context.Context, slug string) (bool, error)

// UniqueSlug returns base, or base-1, base-2, ... for the first free slug
func UniqueSlug(ctx context.Context, base string, exists SlugExistsFunc) (string, error) {
	if base == "" {
		base = "shop"
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
