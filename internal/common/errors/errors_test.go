package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"rate limit", NewProviderError(ProviderRateLimit, 429, "slow down", nil), ErrCodeProviderRateLimit},
		{"auth", NewProviderError(ProviderAuth, 401, "", nil), ErrCodeProviderAuth},
		{"server", NewProviderError(ProviderServerError, 503, "", nil), ErrCodeProviderServerError},
		{"wrapped parse", fmt.Errorf("attempt 2: %w", NewParseError("no json", "hello", nil)), ErrCodeParseFailed},
		{"timeout", NewWorkerTimeoutError("dining", 0), ErrCodeWorkerTimeout},
		{"deadline", context.DeadlineExceeded, ErrCodeWorkerTimeout},
		{"cancelled", context.Canceled, ErrCodeRunCancelled},
		{"plain", fmt.Errorf("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError(ProviderRateLimit, 429, "", nil)))
	assert.True(t, IsRetryable(NewProviderError(ProviderServerError, 500, "", nil)))
	assert.False(t, IsRetryable(NewProviderError(ProviderAuth, 401, "", nil)))
	assert.False(t, IsRetryable(NewProviderError(ProviderInvalidRequest, 400, "", nil)))
	assert.True(t, IsRetryable(NewParseError("bad", "", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("unknown")))
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewInvalidRequirementsError([]string{"origin is required"}))
	assert.Equal(t, string(ErrCodeInvalidRequirements), bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
	assert.False(t, bpmn.Retryable)
	assert.Equal(t, "origin is required", bpmn.Details)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, string(ErrCodeInvalidRequirements), vars["originalErrorCode"])

	cancelled := ConvertToBPMNError(NewRunCancelledError(context.Canceled))
	assert.Equal(t, 1, cancelled.Retries)
}

func TestNormalize_WrapsUnknownErrors(t *testing.T) {
	std := Normalize(NewProviderError(ProviderRateLimit, 429, "", nil))
	assert.Equal(t, ErrCodeProviderRateLimit, std.Code)
	assert.True(t, std.Retryable)
	assert.Equal(t, "LLM_PROVIDER", GetErrorCategory(std.Code))
}

func TestParseError_TruncatesSnippet(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	err := NewParseError("no json object", string(long), nil)
	assert.Len(t, err.Snippet, 203)
	assert.Contains(t, err.Error(), "no json object")
}
