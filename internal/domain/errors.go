package domain

import (
	"errors"
	"fmt"
)

// ValidationError is returned when a topic, name or occurrence cannot be
// built because a required field is missing. It is fatal to the record
// being imported but never to the batch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ResolutionWarning describes a non-fatal anomaly met while importing a
// record: an unknown relation key, a malformed link, a detected alias.
type ResolutionWarning struct {
	RecordID string `json:"record_id,omitempty"`
	Key      string `json:"key,omitempty"`
	Message  string `json:"message"`
}

func (w ResolutionWarning) String() string {
	if w.Key == "" {
		return w.Message
	}
	return w.Key + ": " + w.Message
}
