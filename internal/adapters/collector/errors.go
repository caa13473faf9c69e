package collector

import (
	"errors"
	"fmt"
)

// ErrFetch is matched by every FetchError via errors.Is.
var ErrFetch = errors.New("fetch failed")

// FetchError describes a failed outbound request to a listing source.
type FetchError struct {
	Source string
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: GET %s: unexpected status %d", e.Source, e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: GET %s: %v", e.Source, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: GET %s: %v", e.Source, e.URL, ErrFetch)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }
