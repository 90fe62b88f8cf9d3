package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailure covers transport errors and non-success responses.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrMalformedResponse is a body missing required structure. It is a
	// kind of fetch failure, so errors.Is(err, ErrFetchFailure) holds too.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrFetchFailure)

	// ErrNotFound is a detail lookup that matched no event.
	ErrNotFound = errors.New("earthquake not found")
)

// ErrNoSnapshot is returned by snapshot caches that hold nothing (or only an
// expired entry).
var ErrNoSnapshot = errors.New("no snapshot")
