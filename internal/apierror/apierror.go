package apierror

import (
	"fmt"
	"net/http"
)

// APIError is the JSON body of every failed HTTP response.
type APIError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var (
	ErrBadRequest = func(detail string) *APIError { return New(http.StatusBadRequest, "Bad Request", detail) }
	ErrNotFound   = func(detail string) *APIError { return New(http.StatusNotFound, "Not Found", detail) }
	ErrConflict   = func(detail string) *APIError { return New(http.StatusConflict, "Conflict", detail) }
	ErrInternal   = func(detail string) *APIError {
		return New(http.StatusInternalServerError, "Internal Server Error", detail)
	}
	ErrLLMProcessing = func(detail string) *APIError {
		return New(http.StatusBadGateway, "LLM Processing Failed", detail)
	}
)

func New(code int, message, detail string) *APIError {
	return &APIError{Code: code, Message: message, Detail: detail}
}

func (e *APIError) WithRequestID(requestID string) *APIError {
	e.RequestID = requestID
	return e
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}
