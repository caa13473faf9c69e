package smoke

import "errors"

var (
	// ErrUnhealthy is returned when /health does not report ok.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrVerification is returned when a response breaks an invariant.
	ErrVerification = errors.New("verification failed")
)
