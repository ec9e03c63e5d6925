package domain

import "errors"

var (
	// ErrNoSession indicates an authenticated call was attempted without a
	// bearer token; no network request is made in that case.
	ErrNoSession = errors.New("no active session")

	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)
