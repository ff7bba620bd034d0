package domain

import (
	"net/url"
	"strings"
	"time"
)

// TableBookmarks is the table name used by queries and change subscriptions.
const TableBookmarks = "bookmarks"

// Bookmark is a saved URL owned by a single user.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the data service on insert.
	ID string `json:"id"`

	// UserID references the owner. It never changes after creation.
	UserID string `json:"user_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the display name. Never empty.
	Title string `json:"title"`

	// URL is the target link.
	// Example: https://example.com
	URL string `json:"url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is assigned by the data service and drives the default
	// ordering (newest first).
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkInput carries the user-supplied fields of a bookmark.
type BookmarkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Normalize trims surrounding whitespace from both fields.
func (in BookmarkInput) Normalize() BookmarkInput {
	return BookmarkInput{
		Title: strings.TrimSpace(in.Title),
		URL:   strings.TrimSpace(in.URL),
	}
}

// Complete reports whether both title and url are present.
func (in BookmarkInput) Complete() bool {
	n := in.Normalize()
	return n.Title != "" && n.URL != ""
}

// ValidURL accepts absolute http and https URLs with a host. Anything else
// (javascript:, data:, relative paths) is refused before it is stored.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Hostname() != ""
}

// Validate checks a normalized input for insertion.
func (in BookmarkInput) Validate() error {
	if !in.Complete() {
		return ErrInvalidInput
	}
	if !ValidURL(strings.TrimSpace(in.URL)) {
		return ErrInvalidURL
	}
	return nil
}
