package analytics

import (
	"errors"
	"fmt"
)

// Error kinds returned by the events API client. Match them with errors.Is.
var (
	ErrSchemaCheck     = errors.New("unable to check if schema exists")
	ErrSchemaCreate    = errors.New("unable to create schema")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrPublish         = errors.New("unable to publish events")
)

// Error carries the remote status and message for an unexpected events API response.
// RemoteCode is the statusCode reported in the JSON error body, zero when absent.
type Error struct {
	Kind       error
	Schema     string
	StatusCode int
	RemoteCode int
	Message    string
}

func (e *Error) Error() string {
	code := e.StatusCode
	if e.RemoteCode != 0 {
		code = e.RemoteCode
	}
	msg := fmt.Sprintf("%v %q | %d - %s", e.Kind, e.Schema, code, e.Message)
	if e.Kind == ErrSchemaCreate {
		msg += ". Check schema for errors."
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }
