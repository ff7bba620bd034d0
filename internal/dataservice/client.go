package dataservice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/feed"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Client performs operations on behalf of one session. The resolved user
// is cached, but every call checks that the session record still exists,
// so a long-lived client (a live view) stops working once the session is
// signed out elsewhere.
type Client struct {
	svc   *Service
	token string

	mu        sync.Mutex
	user      *domain.User
	sessionID string
}

// User returns the signed-in user or domain.ErrUnauthenticated.
func (c *Client) User(ctx context.Context) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user != nil {
		err := c.svc.sessionActive(ctx, c.sessionID, c.user.ID)
		if err == nil {
			return c.user, nil
		}
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.user, c.sessionID, c.token = nil, "", ""
		}
		return nil, err
	}
	user, sessionID, err := c.svc.resolve(ctx, c.token)
	if err != nil {
		return nil, err
	}
	c.user, c.sessionID = user, sessionID
	return user, nil
}

// Bookmarks returns the caller's bookmarks, newest first.
func (c *Client) Bookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	user, err := c.User(ctx)
	if err != nil {
		return nil, err
	}
	return c.svc.repo.ListBookmarks(ctx, user.ID)
}

// Insert adds a bookmark owned by the caller.
func (c *Client) Insert(ctx context.Context, in domain.BookmarkInput) (*domain.Bookmark, error) {
	user, err := c.User(ctx)
	if err != nil {
		return nil, err
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	b, err := c.svc.repo.InsertBookmark(ctx, user.ID, in)
	if err != nil {
		return nil, err
	}
	c.svc.publish(ctx, domain.ChangeEvent{Kind: domain.EventInsert, Owner: user.ID, New: b})
	return b, nil
}

// Delete removes one of the caller's bookmarks. Rows of other users are
// reported as domain.ErrNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	user, err := c.User(ctx)
	if err != nil {
		return err
	}

	old, err := c.svc.repo.DeleteBookmark(ctx, user.ID, id)
	if err != nil {
		return err
	}
	c.svc.publish(ctx, domain.ChangeEvent{Kind: domain.EventDelete, Owner: user.ID, Old: old})
	return nil
}

// Update changes the title and/or url of one of the caller's bookmarks.
func (c *Client) Update(ctx context.Context, id string, in domain.BookmarkInput) (*domain.Bookmark, error) {
	user, err := c.User(ctx)
	if err != nil {
		return nil, err
	}
	in = in.Normalize()
	if in.Title == "" && in.URL == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.URL != "" && !domain.ValidURL(in.URL) {
		return nil, domain.ErrInvalidURL
	}

	old, updated, err := c.svc.repo.UpdateBookmark(ctx, user.ID, id, in)
	if err != nil {
		return nil, err
	}
	c.svc.publish(ctx, domain.ChangeEvent{Kind: domain.EventUpdate, Owner: user.ID, Old: old, New: updated})
	return updated, nil
}

// Subscribe opens a change stream on table limited to the caller's rows.
// filter is "*" or one event kind.
func (c *Client) Subscribe(ctx context.Context, table, filter string) (feed.Subscription, error) {
	user, err := c.User(ctx)
	if err != nil {
		return nil, err
	}
	if table != domain.TableBookmarks {
		return nil, fmt.Errorf("table %q: %w", table, domain.ErrForbidden)
	}
	if !domain.ValidFilter(filter) {
		return nil, fmt.Errorf("invalid event filter %q", filter)
	}

	sub, err := c.svc.feed.Subscribe(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return feed.Filter(sub, table, filter), nil
}

// SignOut terminates the session. Later calls with the same token are
// unauthenticated.
func (c *Client) SignOut(ctx context.Context) error {
	if _, err := c.User(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.svc.sessions.DeleteSession(ctx, c.sessionID); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	c.svc.logger.Debug("session terminated", logger.String("user_id", c.user.ID))
	c.user, c.sessionID, c.token = nil, "", ""
	return nil
}
