// Package errs holds the sentinel errors shared by the session, auth and API client layers.
package errs

import "errors"

var (
	// ErrUnauthorized is returned for any backend call answered with HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoSession means the durable store holds no credentials at all.
	ErrNoSession = errors.New("no stored session")

	// ErrPartialSession means only one of token/user was stored, or the user could not be decoded.
	ErrPartialSession = errors.New("partial session in storage")

	// ErrUnknownReport is returned for report kinds or formats the generator does not know.
	ErrUnknownReport = errors.New("unknown report")
)
