package auth

import "errors"

var (
	ErrSecretMissing      = errors.New("auth: jwt secret not configured")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrWrongTokenType     = errors.New("auth: wrong token type")
	ErrSessionNotFound    = errors.New("auth: refresh session not found or already used")
	ErrWeakPassword       = errors.New("auth: password must be at least 8 characters and mix letters and digits")
)
