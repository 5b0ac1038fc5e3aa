// Package errors holds the sentinel error kinds shared across the graph
// engine. NotFound/Unauthorized/Forbidden surface to callers as typed RPC
// errors; Unavailable is retryable (or stream-terminating); Invariant marks
// a programmer error, which apierr maps to a 500.
package errors

import "errors"

var (
	// ErrNotFound covers missing entities, trajectories, and conversations.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized covers an absent or invalid account identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden covers the per-account read constraint on globally
	// shared entities. GraphQuery.GetEntity does not use it: an entity the
	// account never touched is reported as ErrNotFound.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable marks a transient store or LLM failure.
	ErrUnavailable = errors.New("unavailable")
	// ErrInvariant marks a programmer error, e.g. appending an event to
	// a trajectory that has already completed.
	ErrInvariant = errors.New("invariant violated")
)
