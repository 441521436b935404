package auth

import "errors"

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, algorithm
	// mismatches and expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSubject is a well-formed token with no "sub" claim.
	ErrMissingSubject = errors.New("token has no subject")

	// ErrUnauthenticated is the only error the resolver hands to callers.
	ErrUnauthenticated = errors.New("could not validate credentials")

	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrForbidden = errors.New("not enough permissions")
)
