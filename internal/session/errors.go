package session

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPassage  = errors.New("passage has no content")
	ErrConfiguration = errors.New("invalid test configuration")
	ErrNotConfigured = errors.New("configuration not applied")
	ErrNotActive     = errors.New("no test in progress")
	ErrWrongPhase    = errors.New("operation not allowed in current phase")
	ErrNoResume      = errors.New("no resume position available")
)

// PersistenceError reports a failed ResultSink or PositionStore call. It never
// changes session state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
