// Package actions holds the server-side mutation handlers shared by the
// live view, the HTML form fallbacks and the JSON API.
package actions

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	// HomePath is the page listing bookmarks
	HomePath = "/"
	// LoginPath is where signed-out users are sent
	LoginPath = "/login"
)

// Session is the data service as seen by one signed-in caller.
type Session interface {
	User(ctx context.Context) (*domain.User, error)
	Insert(ctx context.Context, in domain.BookmarkInput) (*domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, in domain.BookmarkInput) (*domain.Bookmark, error)
	SignOut(ctx context.Context) error
}

// Revalidator drops cached page data so the next render reads fresh rows.
type Revalidator interface {
	InvalidateSnapshot(ctx context.Context, userID, path string) error
	FlushUserCache(ctx context.Context, userID string) error
}

type Handlers struct {
	rev    Revalidator
	logger logger.Logger
}

func New(rev Revalidator, log logger.Logger) *Handlers {
	return &Handlers{rev: rev, logger: log}
}

// AddBookmark inserts a bookmark for the signed-in user. Empty fields or a
// missing user make it a silent no-op.
func (h *Handlers) AddBookmark(ctx context.Context, s Session, title, url string) (*domain.Bookmark, error) {
	in := domain.BookmarkInput{Title: title, URL: url}.Normalize()
	if !in.Complete() {
		return nil, nil
	}
	user, ok := h.currentUser(ctx, s)
	if !ok {
		return nil, nil
	}

	b, err := s.Insert(ctx, in)
	if err != nil {
		log := h.logger.Error
		if errors.Is(err, domain.ErrInvalidInput) {
			log = h.logger.Debug
		}
		log("failed to add bookmark",
			logger.String("user_id", user.ID),
			logger.Error(err))
		return nil, err
	}

	h.revalidate(ctx, user.ID, HomePath)
	return b, nil
}

// DeleteBookmark removes a bookmark. Ownership is enforced by the data
// service, so a foreign id fails with domain.ErrNotFound.
func (h *Handlers) DeleteBookmark(ctx context.Context, s Session, id string) error {
	if err := s.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			h.logger.Warn("failed to delete bookmark",
				logger.String("bookmark_id", id),
				logger.Error(err))
		}
		return err
	}

	if user, ok := h.currentUser(ctx, s); ok {
		h.revalidate(ctx, user.ID, HomePath)
	}
	return nil
}

// UpdateBookmark renames or repoints a bookmark. The owner never changes.
// Like AddBookmark it is a no-op without a user or without any field set.
func (h *Handlers) UpdateBookmark(ctx context.Context, s Session, id, title, url string) (*domain.Bookmark, error) {
	in := domain.BookmarkInput{Title: title, URL: url}.Normalize()
	if in.Title == "" && in.URL == "" {
		return nil, nil
	}
	user, ok := h.currentUser(ctx, s)
	if !ok {
		return nil, nil
	}

	b, err := s.Update(ctx, id, in)
	if err != nil {
		h.logger.Warn("failed to update bookmark",
			logger.String("bookmark_id", id),
			logger.Error(err))
		return nil, err
	}

	h.revalidate(ctx, user.ID, HomePath)
	return b, nil
}

// SignOut drops every cached page of the user, terminates the session and
// returns the path to redirect to.
func (h *Handlers) SignOut(ctx context.Context, s Session) (string, error) {
	user, ok := h.currentUser(ctx, s)
	if !ok {
		return LoginPath, nil
	}

	if err := h.rev.FlushUserCache(ctx, user.ID); err != nil {
		h.logger.Warn("failed to flush page cache", logger.String("user_id", user.ID), logger.Error(err))
	}
	if err := s.SignOut(ctx); err != nil {
		return "", err
	}
	return LoginPath, nil
}

func (h *Handlers) currentUser(ctx context.Context, s Session) (*domain.User, bool) {
	user, err := s.User(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			h.logger.Warn("user lookup failed", logger.Error(err))
		}
		return nil, false
	}
	return user, true
}

func (h *Handlers) revalidate(ctx context.Context, userID, path string) {
	if err := h.rev.InvalidateSnapshot(ctx, userID, path); err != nil {
		h.logger.Warn("failed to revalidate page",
			logger.String("path", path),
			logger.Error(err))
	}
}
