package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
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

// PermissionDeniedMessage is the only text a caller ever sees for a gate failure.
const PermissionDeniedMessage = "insufficient permissions"

var statusByCode = map[domainagg.ErrorCode]int{
	domainagg.CodePermissionDenied:   http.StatusForbidden,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeStructureMismatch:  http.StatusBadRequest,
	domainagg.CodeShapeMismatch:      http.StatusBadRequest,
	domainagg.CodeInvalidState:       http.StatusConflict,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodeInvariantViolation: http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// FromError converts any error into an *Error suitable for the response envelope.
// Messages of internal failures are replaced so causes never reach the caller.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var de *domainagg.Error
	if !errors.As(err, &de) {
		return New(http.StatusInternalServerError, string(domainagg.CodeInternal), errors.New("internal error"))
	}
	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	switch de.Code {
	case domainagg.CodePermissionDenied:
		return New(status, string(de.Code), errors.New(PermissionDeniedMessage))
	case domainagg.CodeInternal:
		return New(status, string(de.Code), errors.New("internal error"))
	case domainagg.CodeRetryable:
		return New(status, string(de.Code), errors.New("temporarily unavailable, retry later"))
	}
	msg := de.Message
	if msg == "" {
		msg = string(de.Code)
	}
	return New(status, string(de.Code), errors.New(msg))
}
