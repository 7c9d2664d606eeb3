package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Values returned by ErrorType, used to label the exporter's error counter.
//
const (
	ErrorTypeCanceled     = "canceled"
	ErrorTypeTimeout      = "timeout"
	ErrorTypeAuth         = "auth"
	ErrorTypeConnection   = "connection"
	ErrorTypeHTTP         = "http"
	ErrorTypeRPC          = "rpc"
	ErrorTypeDecode       = "decode"
	ErrorTypeMissingField = "missing_field"
	ErrorTypeUnknown      = "unknown"
)

// RPCError is the error object a node replies with when a method fails
// (unknown method, invalid parameters, block not found, ...).
//
type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Method  string `json:"-"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s rpc error (code: %d): %s",
		e.Method, e.Code, e.Message)
}

// HTTPError is returned when the node answered with a non-2xx status and no
// rpc error object to go with it, most notably on authentication failures.
//
type HTTPError struct {
	Method     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected http status %d", e.Method, e.StatusCode)
}

// DecodeError is returned when a response can't be decoded into the shape
// expected for its method.
//
type DecodeError struct {
	Method string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingFieldError is returned when a field that is expected to always be
// present in a method's result is absent (or null).
//
type MissingFieldError struct {
	Method string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing field '%s'", e.Method, e.Field)
}

// ErrorType classifies an error returned from this package into one of the
// ErrorType* constants.
//
func ErrorType(err error) string {
	var (
		missingErr *MissingFieldError
		decodeErr  *DecodeError
		rpcErr     *RPCError
		httpErr    *HTTPError
		netErr     net.Error
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &missingErr):
		return ErrorTypeMissingField
	case errors.As(err, &decodeErr):
		return ErrorTypeDecode
	case errors.As(err, &rpcErr):
		return ErrorTypeRPC
	case errors.As(err, &httpErr):
		if httpErr.StatusCode == 401 || httpErr.StatusCode == 403 {
			return ErrorTypeAuth
		}

		return ErrorTypeHTTP
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}

		return ErrorTypeConnection
	}

	return ErrorTypeUnknown
}

// checkRequired verifies that every dot-separated path in `fields` resolves
// to a non-null value in `raw`. Lists are checked element by element.
//
func checkRequired(method string, raw json.RawMessage, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return &DecodeError{Method: method, Err: err}
		}

		for _, element := range elements {
			if err := checkRequired(method, element, fields); err != nil {
				return err
			}
		}

		return nil
	}

	for _, field := range fields {
		if err := checkPath(method, trimmed, field); err != nil {
			return err
		}
	}

	return nil
}

func checkPath(method string, raw json.RawMessage, path string) error {
	current := raw

	for _, key := range strings.Split(path, ".") {
		var object map[string]json.RawMessage
		if err := json.Unmarshal(current, &object); err != nil {
			return &DecodeError{Method: method, Err: err}
		}

		value, found := object[key]
		if !found || isNull(value) {
			return &MissingFieldError{Method: method, Field: path}
		}

		current = value
	}

	return nil
}
