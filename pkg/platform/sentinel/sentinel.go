package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by trace and audit stores.
// Services translate them into coded domain errors at their boundary.
//
//   - ErrNotFound: no record under the requested key
//   - ErrConflict: a different payload already occupies a write-once key
//   - ErrInvalidState: a record was used outside its lifecycle (e.g. finalized twice)
//   - ErrUnavailable: the backing store could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
