package api

import (
	"errors"
	"net/http"
)

// ErrCasting indicates a middleware wiring mistake with the go-kit style
// encoders, mirroring the teacher's store/transport.go ErrCasting.
var ErrCasting = errors.New("api: casting error due to middleware wiring mistake")

// httpError is the common shape of every handler-level error shortcut from
// spec §4.1: it carries the status code the shared kithttp error encoder
// should write, and an optional JSON body (nil for the empty-body cases).
type httpError struct {
	status int
	body   interface{}
}

func (e httpError) Error() string {
	if msg, ok := e.body.(map[string]string); ok {
		return msg["error"]
	}
	return http.StatusText(e.status)
}

// StatusCode satisfies go-kit's kithttp.StatusCoder, which the shared
// error encoder (errorEncoder in response.go) consults.
func (e httpError) StatusCode() int { return e.status }

// Body returns the JSON payload to write, or nil for an empty body.
func (e httpError) Body() interface{} { return e.body }

func errBadRequest() error         { return httpError{status: http.StatusBadRequest} }
func errNotFound() error           { return httpError{status: http.StatusNotFound} }
func errPreconditionFailed() error { return httpError{status: http.StatusPreconditionFailed} }
