package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

const bookmarkColumns = `id, user_id, title, url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	var (
		b       domain.Bookmark
		created int64
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.URL, &created); err != nil {
		return nil, err
	}
	b.CreatedAt = fromUnix(created)
	return &b, nil
}

// ListBookmarks returns the bookmarks of owner, newest first.
func (s *Store) ListBookmarks(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC, id DESC`),
		owner)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer utils.Close(rows)

	out := make([]domain.Bookmark, 0, 16)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// InsertBookmark stores a new bookmark for owner. The id and creation time
// are assigned here.
func (s *Store) InsertBookmark(ctx context.Context, owner string, in domain.BookmarkInput) (*domain.Bookmark, error) {
	in = in.Normalize()
	b := &domain.Bookmark{
		ID:        uuid.NewString(),
		UserID:    owner,
		Title:     in.Title,
		URL:       in.URL,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO bookmarks (`+bookmarkColumns+`) VALUES (?, ?, ?, ?, ?)`),
		b.ID, b.UserID, b.Title, b.URL, toUnix(b.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}
	return b, nil
}

// DeleteBookmark removes the bookmark id of owner and returns the deleted
// row. A bookmark of another user is reported as domain.ErrNotFound.
func (s *Store) DeleteBookmark(ctx context.Context, owner, id string) (*domain.Bookmark, error) {
	b, err := scanBookmark(s.db.QueryRowContext(ctx, s.rebind(
		`DELETE FROM bookmarks WHERE id = ? AND user_id = ? RETURNING `+bookmarkColumns),
		id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete bookmark: %w", err)
	}
	return b, nil
}

// UpdateBookmark changes the title and/or url of a bookmark. Empty fields
// keep their current value. Both the previous and the new row are returned.
func (s *Store) UpdateBookmark(ctx context.Context, owner, id string, in domain.BookmarkInput) (old, updated *domain.Bookmark, err error) {
	in = in.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	old, err = scanBookmark(tx.QueryRowContext(ctx, s.rebind(
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`),
		id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select bookmark: %w", err)
	}

	next := *old
	if in.Title != "" {
		next.Title = in.Title
	}
	if in.URL != "" {
		next.URL = in.URL
	}

	if _, err = tx.ExecContext(ctx, s.rebind(
		`UPDATE bookmarks SET title = ?, url = ? WHERE id = ? AND user_id = ?`),
		next.Title, next.URL, id, owner); err != nil {
		return nil, nil, fmt.Errorf("update bookmark: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return old, &next, nil
}

// HasBookmarkURL reports whether owner already saved url.
func (s *Store) HasBookmarkURL(ctx context.Context, owner, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = ? AND url = ?`), owner, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count bookmarks: %w", err)
	}
	return n > 0, nil
}
