package whatsapp

import (
	"errors"
	"fmt"
)

var (
	// ErrSession means the automation driver could not be launched or attached.
	ErrSession = errors.New("browser session unavailable")
	// ErrNotReady means the chat application shell never rendered.
	ErrNotReady = errors.New("chat application not ready")
	// ErrEmptyContact is returned when a contact identifier has no digits.
	ErrEmptyContact = errors.New("contact identifier has no digits")
	// ErrNotFound means every conversation strategy was exhausted.
	ErrNotFound = errors.New("conversation not found")
	// ErrInvalidContact means the surface reported the identifier as unusable.
	ErrInvalidContact = errors.New("contact reported invalid by the application")
	// ErrInputNotFound means no message input resolved.
	ErrInputNotFound = errors.New("message input not found")
	// ErrSubmitFailed means typing or submitting the message failed.
	ErrSubmitFailed = errors.New("message submit failed")
	// ErrFileNotFound means the attachment path does not exist.
	ErrFileNotFound = errors.New("attachment file not found")
	// ErrAttachControlNotFound means the attach affordance never resolved.
	ErrAttachControlNotFound = errors.New("attach control not found")
	// ErrUploadFailed means the file could not be injected or submitted.
	ErrUploadFailed = errors.New("attachment upload failed")
)

// StepError records which step of an operation failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	return &StepError{Step: step, Err: err}
}
