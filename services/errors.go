package services

import "errors"

var (
	// ErrNotFound means the slug, username or post id matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the current user may not change the post.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
