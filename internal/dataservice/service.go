// Package dataservice is the single entry point to persisted data. It
// authenticates callers, scopes every query to the caller's rows and
// publishes a change event for every successful mutation.
package dataservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/feed"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// ErrGoogleDisabled is returned by Google sign-in when OAuth is not configured.
var ErrGoogleDisabled = errors.New("google sign-in is not configured")

// Repository is the relational storage behind the service.
type Repository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)
	UserCredentials(ctx context.Context, email string) (*domain.User, string, error)
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, subject, email string) (*domain.User, error)

	ListBookmarks(ctx context.Context, owner string) ([]domain.Bookmark, error)
	InsertBookmark(ctx context.Context, owner string, in domain.BookmarkInput) (*domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, owner, id string) (*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, owner, id string, in domain.BookmarkInput) (old, updated *domain.Bookmark, err error)
	HasBookmarkURL(ctx context.Context, owner, url string) (bool, error)

	Ping(ctx context.Context) error
}

// SessionStore keeps server-side session records.
type SessionStore interface {
	SaveSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// PageCache drops cached page data of a user.
type PageCache interface {
	InvalidateSnapshot(ctx context.Context, userID, path string) error
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Repo     Repository
	Sessions SessionStore
	Feed     feed.Feed
	Tokens   *auth.Tokens
	Google   *auth.Google // optional
	Pages    PageCache    // optional, revalidated after imports
	Logger   logger.Logger
}

// Service is the data service handle. It is safe for concurrent use and is
// passed explicitly to whatever needs it.
type Service struct {
	repo     Repository
	sessions SessionStore
	feed     feed.Feed
	tokens   *auth.Tokens
	google   *auth.Google
	pages    PageCache
	logger   logger.Logger
	now      func() time.Time
}

func New(d Deps) *Service {
	return &Service{
		repo:     d.Repo,
		sessions: d.Sessions,
		feed:     d.Feed,
		tokens:   d.Tokens,
		google:   d.Google,
		pages:    d.Pages,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// Session returns a client acting with the credentials in token. The token
// is only checked when the client is first used.
func (s *Service) Session(token string) *Client {
	return &Client{svc: s, token: token}
}

// SessionTTL returns how long a sign-in lasts.
func (s *Service) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

// Ping checks the relational storage.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// SignUp registers a password account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (string, *domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, err
	}
	user, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("user signed up", logger.String("user_id", user.ID))
	return s.startSession(ctx, user)
}

// SignIn checks a password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, hash, err := s.repo.UserCredentials(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(hash, password) {
		return "", nil, domain.ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// GoogleEnabled reports whether OAuth sign-in is available.
func (s *Service) GoogleEnabled() bool {
	return s.google != nil
}

// GoogleAuthURL returns the Google consent page for state.
func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrGoogleDisabled
	}
	return s.google.AuthCodeURL(state), nil
}

// SignInWithGoogle completes the OAuth flow and opens a session.
func (s *Service) SignInWithGoogle(ctx context.Context, code string) (string, *domain.User, error) {
	if s.google == nil {
		return "", nil, ErrGoogleDisabled
	}
	identity, err := s.google.Identity(ctx, code)
	if err != nil {
		return "", nil, err
	}
	user, err := s.repo.UpsertGoogleUser(ctx, identity.ID, identity.Email)
	if err != nil {
		return "", nil, err
	}
	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user *domain.User) (string, *domain.User, error) {
	token, session, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		return "", nil, err
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}
	return token, user, nil
}

// resolve maps a token to its user. Revoked or expired sessions are
// unauthenticated.
func (s *Service) resolve(ctx context.Context, token string) (*domain.User, string, error) {
	if token == "" {
		return nil, "", domain.ErrUnauthenticated
	}
	claimed, err := s.tokens.Parse(token)
	if err != nil {
		return nil, "", domain.ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, claimed.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, "", err
	}
	if session.UserID != claimed.UserID {
		return nil, "", domain.ErrUnauthenticated
	}

	user, err := s.repo.UserByID(ctx, session.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, "", err
	}
	return user, session.ID, nil
}

// sessionActive checks that a session resolved earlier has not been
// signed out or expired since.
func (s *Service) sessionActive(ctx context.Context, sessionID, userID string) error {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev domain.ChangeEvent) {
	ev.Table = domain.TableBookmarks
	if err := s.feed.Publish(ctx, ev); err != nil {
		// the write is committed, subscribers catch up on their next snapshot
		s.logger.Warn("failed to publish change event",
			logger.String("kind", string(ev.Kind)),
			logger.String("owner", ev.Owner),
			logger.Error(err))
	}
}

// Import inserts entries for the account registered with email, skipping
// URLs it already saved and invalid links. It returns how many bookmarks
// were added. The owner's cached home page is dropped when anything was.
func (s *Service) Import(ctx context.Context, email string, entries []domain.BookmarkInput) (int, error) {
	user, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("import owner %s: %w", email, err)
	}

	added := 0
	defer func() {
		if added > 0 {
			s.revalidateHome(ctx, user.ID)
		}
	}()
	for _, in := range entries {
		in = in.Normalize()
		if in.Validate() != nil {
			continue
		}
		exists, err := s.repo.HasBookmarkURL(ctx, user.ID, in.URL)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		b, err := s.repo.InsertBookmark(ctx, user.ID, in)
		if err != nil {
			return added, err
		}
		s.publish(ctx, domain.ChangeEvent{Kind: domain.EventInsert, Owner: user.ID, New: b})
		added++
	}
	return added, nil
}

func (s *Service) revalidateHome(ctx context.Context, userID string) {
	if s.pages == nil {
		return
	}
	if err := s.pages.InvalidateSnapshot(ctx, userID, "/"); err != nil {
		s.logger.Warn("failed to revalidate page after import",
			logger.String("user_id", userID),
			logger.Error(err))
	}
}
