package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrAuthExpired         = errors.New("authorization expired")
	ErrAuthRevoked         = errors.New("authorization revoked")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// Transient reports whether err is worth retrying with backoff. Auth errors
// require re-authorization and caller errors never heal on retry.
func Transient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrStorageUnavailable)
}
