package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageFormat(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeEndpoint,
		Message:    "server error",
		StatusCode: 503,
	}

	result := err.Error()
	if !strings.Contains(result, "HTTP 503") {
		t.Errorf("expected error message to contain 'HTTP 503', got: %s", result)
	}
	if !strings.Contains(result, "server error") {
		t.Errorf("expected error message to contain 'server error', got: %s", result)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(ErrorTypeUnknown, "wrapped", false, cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{
			name:          "401 is auth and permanent",
			err:           errors.New("status code 401 Unauthorized"),
			wantType:      ErrorTypeAuth,
			wantRetryable: false,
		},
		{
			name:          "invalid api key is auth",
			err:           errors.New("invalid API key provided"),
			wantType:      ErrorTypeAuth,
			wantRetryable: false,
		},
		{
			name:          "model not found is permanent",
			err:           errors.New("the model 'gpt-x' does not exist"),
			wantType:      ErrorTypeModel,
			wantRetryable: false,
		},
		{
			name:          "404 is endpoint and permanent",
			err:           errors.New("status 404 not found"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: false,
		},
		{
			name:          "connection refused is retryable",
			err:           errors.New("dial tcp: connection refused"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "timeout is retryable",
			err:           errors.New("request timeout after 30s"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "rate limit is retryable",
			err:           errors.New("429 Too Many Requests"),
			wantType:      ErrorTypeUnknown,
			wantRetryable: true,
		},
		{
			name:          "503 is retryable",
			err:           errors.New("upstream returned 503"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "unrecognized is permanent",
			err:           errors.New("something odd happened"),
			wantType:      ErrorTypeUnknown,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			if classified.Type != tt.wantType {
				t.Errorf("type = %s, want %s", classified.Type, tt.wantType)
			}
			if classified.Retryable != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", classified.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if ClassifyError(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestClassifyErrorPassesThroughStructured(t *testing.T) {
	original := NewError(ErrorTypeModel, "model not found", false, nil)
	wrapped := fmt.Errorf("embedding call: %w", original)

	if got := ClassifyError(wrapped); got != original {
		t.Errorf("expected the original structured error, got %v", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
	if !IsRetryable(NewError(ErrorTypeEndpoint, "down", true, nil)) {
		t.Error("retryable structured error should report retryable")
	}
}
