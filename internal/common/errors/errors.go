// Package errors provides the error taxonomy shared by the LLM layer, the agents and the
// orchestrator, plus conversion to workflow-engine (BPMN) errors for the job worker.
package errors

import (
	"context"
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
	ErrCodeProviderAuth           ErrorCode = "PROVIDER_AUTH"
	ErrCodeProviderRateLimit      ErrorCode = "PROVIDER_RATE_LIMIT"
	ErrCodeProviderServerError    ErrorCode = "PROVIDER_SERVER_ERROR"
	ErrCodeProviderInvalidRequest ErrorCode = "PROVIDER_INVALID_REQUEST"

	ErrCodeParseFailed   ErrorCode = "PARSE_FAILED"
	ErrCodeWorkerTimeout ErrorCode = "WORKER_TIMEOUT"
	ErrCodeValidationGap ErrorCode = "VALIDATION_GAP"

	ErrCodeRunFatal            ErrorCode = "RUN_FATAL"
	ErrCodeRunCancelled        ErrorCode = "RUN_CANCELLED"
	ErrCodeInvalidRequirements ErrorCode = "INVALID_REQUIREMENTS"

	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
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
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ProviderErrorKind classifies a failed LLM call.
type ProviderErrorKind string

const (
	ProviderAuth           ProviderErrorKind = "auth"
	ProviderRateLimit      ProviderErrorKind = "rate_limit"
	ProviderServerError    ProviderErrorKind = "server_error"
	ProviderInvalidRequest ProviderErrorKind = "invalid_request"
)

// ProviderError is returned by LLM clients when the provider call fails.
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed. Auth and invalid-request failures
// will not change on retry.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderRateLimit || e.Kind == ProviderServerError
}

// ParseError is returned when model output holds no usable structure.
type ParseError struct {
	Reason  string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse failed: %s: %v", e.Reason, e.Err)
	}
	return "parse failed: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// BPMNError represents an error that can be thrown to the workflow engine.
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

// ToErrorVariables returns a map suitable for job fail variables.
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
// 2. Error Constructors
// ==========================

func NewProviderError(kind ProviderErrorKind, status int, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, StatusCode: status, Message: message, Err: err}
}

func NewParseError(reason, text string, err error) *ParseError {
	return &ParseError{Reason: reason, Snippet: snippet(text, 200), Err: err}
}

// NewWorkerTimeoutError marks a worker that exceeded its wall-clock budget.
func NewWorkerTimeoutError(worker string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkerTimeout,
		Message:   "worker exceeded its timeout",
		Details:   fmt.Sprintf("worker=%s timeout=%s", worker, timeout),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     context.DeadlineExceeded,
	}
}

// NewValidationGapError is non-fatal: the validator found something it could not verify.
func NewValidationGapError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationGap,
		Message:   "validation gap",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunFatalError is the only worker-derived failure surfaced to orchestration callers.
func NewRunFatalError(details string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunFatal,
		Message:   "destination discovery produced nothing usable",
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewRunCancelledError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunCancelled,
		Message:   "run cancelled before completion",
		Details:   causeText(cause),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidRequirementsError(problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequirements,
		Message:   "invalid travel requirements",
		Details:   strings.Join(problems, "; "),
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"problems": problems},
	}
}

// NewEngineError wraps a failed workflow-engine command.
func NewEngineError(operation string, retryable bool, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineUnavailable,
		Message:   fmt.Sprintf("workflow engine operation %q failed", operation),
		Details:   causeText(err),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Normalization
// ==========================

// Code maps any error onto an ErrorCode.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	var provErr *ProviderError
	if stderrors.As(err, &provErr) {
		switch provErr.Kind {
		case ProviderAuth:
			return ErrCodeProviderAuth
		case ProviderRateLimit:
			return ErrCodeProviderRateLimit
		case ProviderInvalidRequest:
			return ErrCodeProviderInvalidRequest
		default:
			return ErrCodeProviderServerError
		}
	}
	var parseErr *ParseError
	if stderrors.As(err, &parseErr) {
		return ErrCodeParseFailed
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrCodeWorkerTimeout
	}
	if stderrors.Is(err, context.Canceled) {
		return ErrCodeRunCancelled
	}
	return ErrCodeInternal
}

// IsRetryable reports whether a worker should spend another attempt on err.
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if stderrors.As(err, &provErr) {
		return provErr.Retryable()
	}
	var parseErr *ParseError
	if stderrors.As(err, &parseErr) {
		return true
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// Normalize always yields a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      Code(err),
		Message:   "unexpected error",
		Details:   err.Error(),
		Retryable: IsRetryable(err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the workflow-engine retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderRateLimit, ErrCodeProviderServerError:
		return 2
	case ErrCodeWorkerTimeout, ErrCodeRunCancelled:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable && stdErr.Code != ErrCodeRunCancelled {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: retries > 0,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "LLM_PROVIDER"
	case code == ErrCodeParseFailed:
		return "MODEL_OUTPUT"
	case strings.HasPrefix(codeStr, "RUN") || code == ErrCodeWorkerTimeout:
		return "ORCHESTRATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

func snippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
