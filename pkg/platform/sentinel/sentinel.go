package sentinel

import "errors"

// Infrastructure facts shared across backends. Callers match them with
// errors.Is and map them to domain errors at the service boundary.
var (
	// ErrNotFound means the key was never written or has been deleted.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means a backend did not answer a health probe.
	ErrUnavailable = errors.New("unavailable")
)
