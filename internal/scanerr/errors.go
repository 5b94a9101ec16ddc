// Package scanerr defines the error taxonomy shared by every stage of a scan.
//
// Stages wrap one of the sentinel errors below in an *Error so callers can
// match on the category with errors.Is while still seeing which operation
// failed and why.
package scanerr

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when the source image cannot be decoded.
	ErrDecode = errors.New("image could not be decoded")

	// ErrTransport is returned on network or HTTP-level failures.
	ErrTransport = errors.New("transport failure")

	// ErrService is returned when a remote service reports a failure.
	ErrService = errors.New("remote service reported a failure")

	// ErrNoTextDetected is returned when OCR produced no usable lines.
	ErrNoTextDetected = errors.New("no text detected")

	// ErrEmptyResponse is returned when the AI endpoint returned no text.
	ErrEmptyResponse = errors.New("empty response from AI endpoint")

	// ErrMalformedJSON is returned when the AI reply is not a JSON object.
	ErrMalformedJSON = errors.New("malformed JSON in AI response")

	// ErrRateLimited marks an HTTP 429. It is recovered by the cover lookup
	// and never surfaced to the user.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotIdentified marks a scan that ran correctly but found no title.
	// It is represented by a placeholder record, never returned as a failure.
	ErrNotIdentified = errors.New("book not identified")
)

// Error wraps a sentinel with the operation that failed.
type Error struct {
	// Op is the operation that failed (e.g. "ExtractLines", "Identify").
	Op string

	// Err is the underlying error, usually one of the sentinels.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an *Error for op.
func New(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}

// Wrap wraps err as an *Error unless it already is one.
func Wrap(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var scanErr *Error
	if errors.As(err, &scanErr) {
		return err
	}

	return New(op, err, details)
}

// UserMessage converts any hard error into the single message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return "The image could not be read. Try another photo."
	case errors.Is(err, ErrNoTextDetected):
		return "No text was found on the cover. Try a sharper, closer photo."
	case errors.Is(err, ErrEmptyResponse):
		return "The identification service returned no answer."
	case errors.Is(err, ErrMalformedJSON):
		return "The identification service returned an unreadable answer."
	case errors.Is(err, ErrTransport):
		return "A network error occurred. Check the connection and try again."
	case errors.Is(err, ErrService):
		return "A remote service reported an error."
	default:
		return "Scanning failed: " + err.Error()
	}
}
