package extraction

import "errors"

// ErrNoItems is returned when the model produced a well-formed but
// empty item array. Callers treat this as "nothing to report" rather
// than a failure.
var ErrNoItems = errors.New("no items found in receipt text")

// FormatError indicates the completion service returned content that
// could not be decoded as a JSON item array.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return "unparseable completion content: " + e.Detail
}

// ValidationError indicates a decoded item failed schema validation.
// Detail names the offending item and field.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "item validation failed: " + e.Detail
}
