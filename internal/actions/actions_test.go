package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type fakeSession struct {
	user      *domain.User
	inserted  []domain.BookmarkInput
	deleted   []string
	updated   []domain.BookmarkInput
	signedOut bool
	err       error
}

func (f *fakeSession) User(context.Context) (*domain.User, error) {
	if f.user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return f.user, nil
}

func (f *fakeSession) Insert(_ context.Context, in domain.BookmarkInput) (*domain.Bookmark, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserted = append(f.inserted, in)
	return &domain.Bookmark{ID: "b1", UserID: f.user.ID, Title: in.Title, URL: in.URL}, nil
}

func (f *fakeSession) Delete(_ context.Context, id string) error {
	if f.user == nil {
		return domain.ErrUnauthenticated
	}
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSession) Update(_ context.Context, id string, in domain.BookmarkInput) (*domain.Bookmark, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, in)
	return &domain.Bookmark{ID: id, UserID: f.user.ID, Title: in.Title, URL: in.URL}, nil
}

func (f *fakeSession) SignOut(context.Context) error {
	f.signedOut = true
	return nil
}

type fakeRevalidator struct {
	paths   []string
	flushed []string
}

func (r *fakeRevalidator) InvalidateSnapshot(_ context.Context, userID, path string) error {
	r.paths = append(r.paths, userID+":"+path)
	return nil
}

func (r *fakeRevalidator) FlushUserCache(_ context.Context, userID string) error {
	r.flushed = append(r.flushed, userID)
	return nil
}

func alice() *domain.User { return &domain.User{ID: "u1", Email: "alice@example.com"} }

func TestAddBookmark(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		title, url string
		wantInsert bool
	}{
		{"inserts", alice(), "Docs", "https://example.com", true},
		{"trims", alice(), "  Docs ", " https://example.com ", true},
		{"empty title", alice(), "", "https://example.com", false},
		{"blank url", alice(), "Docs", "   ", false},
		{"unauthenticated", nil, "Docs", "https://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{user: tt.user}
			rev := &fakeRevalidator{}
			h := New(rev, logger.Nop())

			b, err := h.AddBookmark(context.Background(), s, tt.title, tt.url)
			if err != nil {
				t.Fatalf("AddBookmark() error = %v", err)
			}
			if got := len(s.inserted) == 1; got != tt.wantInsert {
				t.Fatalf("inserted = %v, want %v", s.inserted, tt.wantInsert)
			}
			if !tt.wantInsert {
				if b != nil || len(rev.paths) != 0 {
					t.Errorf("no-op returned %+v and revalidated %v", b, rev.paths)
				}
				return
			}
			if s.inserted[0].Title != "Docs" || s.inserted[0].URL != "https://example.com" {
				t.Errorf("inserted %+v, want trimmed fields", s.inserted[0])
			}
			if len(rev.paths) != 1 || rev.paths[0] != "u1:/" {
				t.Errorf("revalidated %v, want [u1:/]", rev.paths)
			}
		})
	}
}

func TestAddBookmarkError(t *testing.T) {
	boom := errors.New("boom")
	s := &fakeSession{user: alice(), err: boom}
	rev := &fakeRevalidator{}

	if _, err := New(rev, logger.Nop()).AddBookmark(context.Background(), s, "Docs", "https://example.com"); !errors.Is(err, boom) {
		t.Errorf("AddBookmark() error = %v, want boom", err)
	}
	if len(rev.paths) != 0 {
		t.Errorf("failed insert should not revalidate, got %v", rev.paths)
	}
}

func TestDeleteBookmark(t *testing.T) {
	s := &fakeSession{user: alice()}
	rev := &fakeRevalidator{}
	h := New(rev, logger.Nop())

	if err := h.DeleteBookmark(context.Background(), s, "b1"); err != nil {
		t.Fatalf("DeleteBookmark() error = %v", err)
	}
	if len(s.deleted) != 1 || s.deleted[0] != "b1" {
		t.Errorf("deleted = %v", s.deleted)
	}
	if len(rev.paths) != 1 {
		t.Errorf("revalidated %v", rev.paths)
	}

	s.err = domain.ErrNotFound
	if err := h.DeleteBookmark(context.Background(), s, "b2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteBookmark() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBookmarkUnauthenticated(t *testing.T) {
	err := New(&fakeRevalidator{}, logger.Nop()).DeleteBookmark(context.Background(), &fakeSession{}, "b1")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("DeleteBookmark() error = %v, want ErrUnauthenticated", err)
	}
}

func TestUpdateBookmark(t *testing.T) {
	s := &fakeSession{user: alice()}
	rev := &fakeRevalidator{}
	h := New(rev, logger.Nop())

	if b, err := h.UpdateBookmark(context.Background(), s, "b1", "", ""); err != nil || b != nil {
		t.Errorf("UpdateBookmark(empty) = %+v, %v, want no-op", b, err)
	}

	b, err := h.UpdateBookmark(context.Background(), s, "b1", "Go docs", "")
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	if b.Title != "Go docs" || len(s.updated) != 1 || len(rev.paths) != 1 {
		t.Errorf("UpdateBookmark() = %+v, updated %v, revalidated %v", b, s.updated, rev.paths)
	}
}

func TestSignOut(t *testing.T) {
	s := &fakeSession{user: alice()}
	rev := &fakeRevalidator{}

	to, err := New(rev, logger.Nop()).SignOut(context.Background(), s)
	if err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if to != LoginPath || !s.signedOut {
		t.Errorf("SignOut() = %q, signedOut %v", to, s.signedOut)
	}
	if len(rev.flushed) != 1 || rev.flushed[0] != "u1" {
		t.Errorf("flushed %v, want [u1]", rev.flushed)
	}

	anon := &fakeSession{}
	if to, err := New(rev, logger.Nop()).SignOut(context.Background(), anon); err != nil || to != LoginPath || anon.signedOut {
		t.Errorf("anonymous SignOut() = %q, %v", to, err)
	}
}
