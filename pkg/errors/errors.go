package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the error shape returned to API clients
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeReminderNotFound = "REMINDER_NOT_FOUND"
	CodeAlertNotFound    = "ALERT_NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeStorageError     = "STORAGE_ERROR"
)

var (
	ErrUnauthorized     = newError(CodeUnauthorized, "Unauthorized", http.StatusUnauthorized)
	ErrInternalError    = newError(CodeInternalError, "Internal server error", http.StatusInternalServerError)
	ErrReminderNotFound = newError(CodeReminderNotFound, "Reminder not found", http.StatusNotFound)
	ErrAlertNotFound    = newError(CodeAlertNotFound, "Alert not found or already dismissed", http.StatusNotFound)
	ErrRateLimited      = newError(CodeRateLimited, "Too many requests", http.StatusTooManyRequests)
)

func newError(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap attaches a cause to a new AppError
func Wrap(err error, code string, message string, statusCode int) *AppError {
	appErr := newError(code, message, statusCode)
	appErr.Err = err
	return appErr
}

// ValidationError rejects a request before any state changes.
func ValidationError(message string) *AppError {
	return newError(CodeValidationError, message, http.StatusBadRequest)
}

// StorageError reports that a change was applied but could not be saved.
func StorageError(err error) *AppError {
	return Wrap(err, CodeStorageError, "Change applied but not saved", http.StatusInternalServerError)
}

// GetAppError extracts AppError from an error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
