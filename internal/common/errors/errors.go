// Package errors provides standardized error handling for source fetches and
// for BPMN workflow integration of the comparison worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Source acquisition errors. None of these ever leave a source client; they
// drive retry and fallback decisions and end up in logs and metrics.
const (
	ErrCodeTransientNetwork      ErrorCode = "TRANSIENT_NETWORK"
	ErrCodeMalformedResponse     ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeStructuralUnavailable ErrorCode = "STRUCTURAL_UNAVAILABLE"
	ErrCodeFallbackFailed        ErrorCode = "FALLBACK_FAILED"
	ErrCodeNoMatch               ErrorCode = "NO_MATCH"
)

// Worker-level errors, thrown to the workflow engine.
const (
	ErrCodeInvalidCompareInput ErrorCode = "INVALID_COMPARE_INPUT"
	ErrCodeComparisonTimeout   ErrorCode = "COMPARISON_TIMEOUT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewTransientNetworkError covers timeouts, refused connections and non-2xx statuses.
func NewTransientNetworkError(source, operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransientNetwork,
		Message:   fmt.Sprintf("%s %s request failed", source, operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStatusError is a transient network error for an unexpected HTTP status.
func NewStatusError(source, operation string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransientNetwork,
		Message:   fmt.Sprintf("%s %s request failed", source, operation),
		Details:   fmt.Sprintf("unexpected status %d", status),
		Retryable: true,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError covers undecodable or schema-mismatched bodies.
// It is retried exactly like a network failure.
func NewMalformedResponseError(source, operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   fmt.Sprintf("%s %s response could not be decoded", source, operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStructuralUnavailableError marks a source whose primary path is exhausted.
func NewStructuralUnavailableError(source, operation string, attempts int, last error) *StandardError {
	details := fmt.Sprintf("gave up after %d attempts", attempts)
	if last != nil {
		details = fmt.Sprintf("%s: %v", details, last)
	}
	return &StandardError{
		Code:      ErrCodeStructuralUnavailable,
		Message:   fmt.Sprintf("%s %s unavailable", source, operation),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"attempts": attempts},
		Timestamp: time.Now().UTC(),
		cause:     last,
	}
}

// NewFallbackFailedError records why the alternate acquisition path produced nothing.
func NewFallbackFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFallbackFailed,
		Message:   fmt.Sprintf("%s fallback search failed", source),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNoMatchError is informational: the dish was not on a restaurant's menu.
func NewNoMatchError(dish string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatch,
		Message:   "Dish not found on menu",
		Details:   fmt.Sprintf("dish: %s", dish),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCompareInputError creates a non-retryable worker input error.
func NewInvalidCompareInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCompareInput,
		Message:   "Invalid comparison input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewComparisonTimeoutError is raised only when a job deadline expires before
// any result could be shaped.
func NewComparisonTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeComparisonTimeout,
		Message:   "Comparison timed out",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidCompareInput: "INVALID_COMPARE_INPUT",
	ErrCodeComparisonTimeout:   "COMPARISON_TIMEOUT",
	ErrCodeInternal:            "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransientNetwork, ErrCodeMalformedResponse:
		return 2
	case ErrCodeComparisonTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsRetryable reports whether err is a StandardError flagged retryable.
// Errors of unknown shape are treated as retryable transport failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// CodeOf extracts the error code, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "TIMEOUT"):
		return "NETWORK"
	case strings.Contains(codeStr, "MALFORMED"):
		return "PAYLOAD"
	case strings.Contains(codeStr, "UNAVAILABLE") || strings.Contains(codeStr, "FALLBACK"):
		return "SOURCE"
	case strings.Contains(codeStr, "MATCH"):
		return "MATCHING"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
