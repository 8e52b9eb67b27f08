package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoChoices is returned when a select field has nothing to offer.
	ErrNoChoices = errors.New("prompt: no choices")
)
