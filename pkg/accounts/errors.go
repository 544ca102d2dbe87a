package accounts

import "errors"

// EnumerationError reports a failure reading the account database.
type EnumerationError struct {
	Message string
	Err     error
}

func (e *EnumerationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// IsEnumerationError reports whether err carries an *EnumerationError.
func IsEnumerationError(err error) bool {
	var target *EnumerationError
	return errors.As(err, &target)
}
