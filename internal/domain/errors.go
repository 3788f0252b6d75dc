package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrCacheMiss indicates required derived data is not yet present in the
	// cache. Always recoverable: the caller refetches from the network and
	// re-runs a cache update.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotFound indicates the requested record does not exist in durable
	// storage
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a download state change that the state
	// machine does not permit
	ErrInvalidTransition = errors.New("invalid download state transition")
)
