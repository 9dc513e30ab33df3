// Package apperr defines the error taxonomy shared by every service and
// maps it onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"medcomm-trainer/internal/log"
)

// logger overrides the global logger in Write when set.
var logger *slog.Logger

type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUpstream     Kind = "UPSTREAM_FAILURE"
	KindPersistence  Kind = "PERSISTENCE_FAILURE"
)

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func NotFound(reason string) *Error {
	return New(KindNotFound, reason, nil)
}

func Unauthorized(reason string) *Error {
	return New(KindUnauthorized, reason, nil)
}

func BadRequest(reason string) *Error {
	return New(KindBadRequest, reason, nil)
}

func Upstream(reason string, err error) *Error {
	return New(KindUpstream, reason, err)
}

func Persistence(reason string, err error) *Error {
	return New(KindPersistence, reason, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps err to the HTTP status returned to the caller.
func Status(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write sends err as a plain-text HTTP error. Server-side failures are
// logged at error level with the request id.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		log.Or(logger).Error("request failed",
			"kind", string(KindOf(err)),
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	http.Error(w, err.Error(), status)
}
