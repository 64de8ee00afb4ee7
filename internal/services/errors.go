package services

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrResetExpired       = errors.New("password reset expired or already used")
	ErrNotInCouple        = errors.New("user is not in a couple")
	ErrInvalidDay         = errors.New("day must be formatted as YYYY-MM-DD")
	ErrExportDisabled     = errors.New("exports are not configured")
)
