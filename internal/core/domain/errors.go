package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("access forbidden")
	ErrRegistrationDisabled = errors.New("user registration is disabled")
	ErrInvalidPassword      = errors.New("password cannot be empty or whitespace")
)
