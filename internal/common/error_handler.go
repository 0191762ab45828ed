// Package common provides error handling utilities shared by the store and
// server packages: structured error envelopes, HTTP status code error
// constructors, and error classification functions for consistent error
// reporting across the demo HTTP surface.
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// ErrorEnvelope represents a structured error response with metadata,
// JSON-serializable for the HTTP surface.
type ErrorEnvelope struct {
	MessageType   string `json:"messageType"`
	Text          string `json:"text"`
	Code          string `json:"code,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// HTTPResponse pairs an HTTP status code with the body to encode for it.
type HTTPResponse struct {
	Code int
	Body any
}

func NewErrorEnvelope(text error, code string, correlationID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		MessageType:   "Error",
		Text:          text.Error(),
		Code:          code,
		CorrelationID: correlationID,
		Timestamp:     GetCurrentTimestamp(),
	}
}

// NewErrNotFound creates a standardized "404 Not Found" error.
func NewErrNotFound(elementID string) error {
	return errors.New("404 Not Found: " + elementID)
}

// NewErrBadRequest creates a standardized "400 Bad Request" error.
func NewErrBadRequest(message string) error {
	return errors.New("400 Bad Request: " + message)
}

// NewInternalServerError creates a standardized "500 Internal Server Error" error.
func NewInternalServerError(message string) error {
	return errors.New("500 Internal Server Error: " + message)
}

// NewErrConflict creates a standardized "409 Conflict" error.
func NewErrConflict(message string) error {
	return errors.New("409 Conflict: " + message)
}

// NewErrDenied creates a standardized "403 Denied" error.
func NewErrDenied(message string) error {
	return errors.New("403 Denied: " + message)
}

func IsErrNotFound(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "404 Not Found: ")
}

func IsErrBadRequest(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "400 Bad Request: ")
}

func IsInternalServerError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "500 Internal Server Error: ")
}

func IsErrConflict(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "409 Conflict: ")
}

func IsErrDenied(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "403 Denied: ")
}

// NewErrorResponse builds an HTTPResponse carrying a single ErrorEnvelope for err.
//
// The internal correlation code format is "<component>-<code>-<function>-<statusText>-<info>".
func NewErrorResponse(err error, errorCode int, component string, function string, info string) HTTPResponse {
	codeStr := strconv.Itoa(errorCode)
	statusText := strings.ReplaceAll(http.StatusText(errorCode), " ", "")
	internalCode := fmt.Sprintf("%s-%s-%s-%s-%s", component, codeStr, function, statusText, info)

	return HTTPResponse{
		Code: errorCode,
		Body: []ErrorEnvelope{*NewErrorEnvelope(err, codeStr, internalCode)},
	}
}

// NewAccessDeniedResponse returns a standardized, deliberately uninformative
// HTTP 403 response. Every denial produces the exact same structure so a
// caller cannot infer rule configuration by comparing error bodies.
func NewAccessDeniedResponse() HTTPResponse {
	return NewErrorResponse(errors.New("access denied"), http.StatusForbidden, "server", "Decide", "Denied")
}

// WriteHTTPResponse encodes resp.Body as JSON and writes it with resp.Code.
// A nil Body writes the status code with no body, as required for 204s.
func WriteHTTPResponse(w http.ResponseWriter, resp HTTPResponse) {
	if resp.Body == nil {
		w.WriteHeader(resp.Code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		// Headers are already sent; nothing left to do but log via the caller's
		// own request logging middleware.
		_ = err
	}
}
