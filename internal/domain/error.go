package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Context subsystem failure modes. None of these may abort a user
	// request; each has a defined degraded-continue behavior at the
	// policy engine.
	ErrStorageUnavailable = errors.New("preference storage unavailable")
	ErrCacheDecryptFailed = errors.New("cache entry decrypt failed")
	ErrContextFetchFailed = errors.New("live context fetch failed")
	ErrKeyMissing         = errors.New("encryption key missing")

	// Model backend errors, surfaced to the user by the bot layer.
	ErrRateLimited  = errors.New("model backend rate limited")
	ErrInvalidInput = errors.New("model backend rejected input")
	ErrUpstream     = errors.New("model backend upstream failure")
)
