package httputil

import (
	"context"
	"errors"
	"net/http"
)

// ErrorInfo is the status code and the visitor-facing message for an error.
type ErrorInfo struct {
	Status  int
	Message string
}

type mapping struct {
	err     error
	status  int
	message string
}

// ErrorMapper maps domain errors to HTTP status codes and messages.
// Mappings are matched with errors.Is in registration order.
type ErrorMapper struct {
	mappings       []mapping
	defaultStatus  int
	defaultMessage string
}

func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{
		defaultStatus:  http.StatusInternalServerError,
		defaultMessage: "internal server error",
	}
}

func (m *ErrorMapper) WithMapping(err error, status int, message string) *ErrorMapper {
	m.mappings = append(m.mappings, mapping{err: err, status: status, message: message})
	return m
}

// WithDefault sets the status and message for unmatched errors.
func (m *ErrorMapper) WithDefault(status int, message string) *ErrorMapper {
	m.defaultStatus = status
	m.defaultMessage = message
	return m
}

// Map converts err to a status and message. Registered mappings win over context errors,
// so a timeout wrapped in a domain error keeps the domain status.
func (m *ErrorMapper) Map(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusOK}
	}
	for _, mp := range m.mappings {
		if errors.Is(err, mp.err) {
			return ErrorInfo{Status: mp.status, Message: mp.message}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorInfo{Status: http.StatusGatewayTimeout, Message: "request timeout"}
	}
	if errors.Is(err, context.Canceled) {
		return ErrorInfo{Status: http.StatusServiceUnavailable, Message: "request cancelled"}
	}
	return ErrorInfo{Status: m.defaultStatus, Message: m.defaultMessage}
}
