package ingest

import "errors"

// ErrPanic wraps a panic recovered from a collector or a posting.
var ErrPanic = errors.New("recovered panic")
