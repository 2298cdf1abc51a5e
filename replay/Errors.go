package replay

import "errors"

// Error implements errors unique to a replay Store
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

var errEmpty = errors.New("store empty")

var errBatchSize = errors.New("batch size must be positive")

// IsEmpty returns whether or not an error reports that a replay Store
// is empty.
func IsEmpty(err error) bool {
	return errors.Is(err, errEmpty)
}

// IsBatchSize returns whether or not an error reports that an invalid
// number of transitions was requested.
func IsBatchSize(err error) bool {
	return errors.Is(err, errBatchSize)
}
