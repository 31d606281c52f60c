package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a business error so handlers can map it to a status code
// and clients can branch without parsing messages.
type Kind int

const (
	KindInvalid Kind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	// KindInsufficientBalance is deliberately distinct from KindInvalid:
	// callers react to it by prompting a wallet top-up.
	KindInsufficientBalance
	KindConflict
	KindExternal
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of err, defaulting to KindInternal for errors
// that did not originate in the business layer.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode maps an error kind to its HTTP equivalent.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden, KindInsufficientBalance:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
}

func OK(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg, StatusCode: http.StatusOK, Data: data})
}

func Created(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: msg, StatusCode: http.StatusCreated, Data: data})
}

func Respond(c echo.Context, err error) error {
	code := StatusCode(err)
	msg := err.Error()
	var e *Error
	if errors.As(err, &e) {
		msg = e.Message
	} else if code == http.StatusInternalServerError {
		msg = "something went wrong"
	}
	return c.JSON(code, Envelope{Success: false, Message: msg, StatusCode: code})
}
