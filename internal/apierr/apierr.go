package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidationFailed = "validation_failed"
	CodeStorageFailed    = "storage_failed"
	CodeServiceFailed    = "service_failed"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, CodeValidationFailed, err)
}

func Storage(err error) *Error {
	return New(http.StatusInternalServerError, CodeStorageFailed, err)
}

func Service(err error) *Error {
	return New(http.StatusBadGateway, CodeServiceFailed, err)
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s not found", what))
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, CodeConflict, err)
}

// As unwraps err into an *Error, or wraps it as a plain 500 so handlers can
// respond uniformly.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, "internal_error", err)
}
