package slam

import "errors"

// Fatal startup and protocol errors, spec.md §7. Callers that receive one
// of these from the estimator must stop processing; they are not
// recoverable locally.
var (
	ErrMissingMapPath = errors.New("slam: map_path is required")
	ErrMalformedScan  = errors.New("slam: laser scan has malformed angular or range bounds")
	ErrMalformedMap   = errors.New("slam: prior map file is malformed")
)
