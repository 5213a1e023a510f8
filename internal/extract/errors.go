package extract

import "fmt"

// ValidationError reports a document that cannot be parsed at all: wrong
// resource type, undecodable JSON, empty EDI input or an unknown 837 variant.
type ValidationError struct {
	Format Format
	Msg    string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Format, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(f Format, msg string, err error) *ValidationError {
	return &ValidationError{Format: f, Msg: msg, Err: err}
}
