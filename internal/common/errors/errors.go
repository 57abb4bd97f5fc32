// Package errors provides standardized error handling for BPMN workflow integration.
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

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileLookupFailed ErrorCode = "PROFILE_LOOKUP_FAILED"
	ErrCodeNoContactChannel    ErrorCode = "NO_CONTACT_CHANNEL"

	ErrCodeCatalogQueryFailed ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeSearchQueryFailed  ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeMatchPersistFailed ErrorCode = "MATCH_PERSIST_FAILED"
	ErrCodeMatchQueryFailed   ErrorCode = "MATCH_QUERY_FAILED"

	ErrCodeRematchTriggerFailed ErrorCode = "REMATCH_TRIGGER_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, retryable bool, cause error, details string) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
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

// NewInvalidInputError creates a non-retryable validation error for job variables.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", false, nil, details)
}

// NewProfileNotFoundError creates a non-retryable error for an unknown business.
func NewProfileNotFoundError(businessID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Business profile not found", false, nil,
		fmt.Sprintf("businessId: %s", businessID))
}

// NewProfileLookupFailedError creates a retryable profile source error.
func NewProfileLookupFailedError(businessID string, err error) *StandardError {
	return newError(ErrCodeProfileLookupFailed, "Business profile lookup failed", true, err,
		fmt.Sprintf("businessId: %s, error: %v", businessID, err))
}

// NewNoContactChannelError creates a non-retryable error for a profile without email or phone.
func NewNoContactChannelError(businessID string) *StandardError {
	return newError(ErrCodeNoContactChannel, "Business has no contact channel", false, nil,
		fmt.Sprintf("businessId: %s", businessID))
}

// NewCatalogQueryFailedError creates a retryable program catalog error.
func NewCatalogQueryFailedError(err error) *StandardError {
	return newError(ErrCodeCatalogQueryFailed, "Program catalog query failed", true, err, "")
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error", true, err,
		fmt.Sprintf("index: %s, error: %v", index, err))
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", true, nil,
		fmt.Sprintf("index: %s", index))
}

// NewMatchPersistFailedError creates a retryable match store write error.
func NewMatchPersistFailedError(err error) *StandardError {
	return newError(ErrCodeMatchPersistFailed, "Match record persistence failed", true, err, "")
}

// NewMatchQueryFailedError creates a retryable match store read error.
func NewMatchQueryFailedError(businessID string, err error) *StandardError {
	return newError(ErrCodeMatchQueryFailed, "Match record query failed", true, err,
		fmt.Sprintf("businessId: %s, error: %v", businessID, err))
}

// NewRematchTriggerFailedError creates a retryable re-matching trigger error.
func NewRematchTriggerFailedError(businessID string, err error) *StandardError {
	return newError(ErrCodeRematchTriggerFailed, "Re-matching request failed", true, err,
		fmt.Sprintf("businessId: %s, error: %v", businessID, err))
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", true, err,
		fmt.Sprintf("channel: %s, error: %v", channel, err))
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled in the BPMN diagrams.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeProfileNotFound:        "PROFILE_NOT_FOUND",
	ErrCodeProfileLookupFailed:    "PROFILE_LOOKUP_FAILED",
	ErrCodeNoContactChannel:       "NO_CONTACT_CHANNEL",
	ErrCodeCatalogQueryFailed:     "CATALOG_QUERY_FAILED",
	ErrCodeSearchQueryFailed:      "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:          "SEARCH_TIMEOUT",
	ErrCodeMatchPersistFailed:     "MATCH_PERSIST_FAILED",
	ErrCodeMatchQueryFailed:       "MATCH_QUERY_FAILED",
	ErrCodeRematchTriggerFailed:   "REMATCH_TRIGGER_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileLookupFailed,
		ErrCodeCatalogQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeMatchPersistFailed,
		ErrCodeMatchQueryFailed,
		ErrCodeRematchTriggerFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeSearchTimeout:
		return 2

	default:
		return 0 // business errors are thrown, not retried
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

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "CONTACT"):
		return "PROFILE"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "REMATCH"):
		return "REMATCH"
	case strings.Contains(codeStr, "MATCH"):
		return "MATCH_STORE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
