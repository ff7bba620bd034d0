package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a row is absent or not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned for tables outside the caller's reach.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned on a failed password sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidInput is returned when a bookmark lacks a title or url.
	ErrInvalidInput = errors.New("title and url are required")
	// ErrInvalidURL is returned for links that are not absolute http(s) URLs.
	// It matches ErrInvalidInput with errors.Is.
	ErrInvalidURL = fmt.Errorf("url must be an absolute http or https link: %w", ErrInvalidInput)
)
