package safety

import "fmt"

// Error is a safety validation failure (the critic could not produce a
// compliant slide set, or a strict review policy rejected it).
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}
