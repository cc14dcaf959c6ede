package auth

import "errors"

var (
	// ErrInvalidCredentials indicates a bad email/password pair. Bad
	// format, unknown email, and wrong password all collapse into this
	// one error so the response leaks nothing.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates an unknown or already-consumed reset token.
	ErrInvalidToken = errors.New("invalid reset token")
)
