package generation

import (
	"errors"

	"safepath/internal/llm"
	"safepath/internal/slides"
)

var ErrDisabled = errors.New("LLM generation is disabled")

// Error is a story generation failure. Msg is the client-facing reason;
// Err keeps the cause for logs and errors.Is.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// publicReasons are the failures whose own text is safe to show callers.
var publicReasons = []error{
	ErrDisabled,
	llm.ErrUnreachable,
	llm.ErrInvalidEnvelope,
	llm.ErrUnexpectedPayload,
	llm.ErrEmptyResponse,
	llm.ErrNoJSONObject,
	llm.ErrInvalidJSON,
	llm.ErrRootNotObject,
	slides.ErrNoSlides,
	slides.ErrTooFewSlides,
}

func wrap(err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	for _, reason := range publicReasons {
		if errors.Is(err, reason) {
			return &Error{Msg: reason.Error(), Err: err}
		}
	}
	return &Error{Msg: "Story generation failed", Err: err}
}
