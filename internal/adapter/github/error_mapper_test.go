package github_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantType   llmhttp.ErrorType
		retryable  bool
	}{
		{
			name:       "unauthorized",
			statusCode: http.StatusUnauthorized,
			body:       `{"message": "Bad credentials"}`,
			wantType:   llmhttp.ErrTypeAuthentication,
		},
		{
			name:       "forbidden",
			statusCode: http.StatusForbidden,
			body:       `{"message": "Resource not accessible by integration"}`,
			wantType:   llmhttp.ErrTypeAuthentication,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			body:       `{"message": "API rate limit exceeded"}`,
			wantType:   llmhttp.ErrTypeRateLimit,
			retryable:  true,
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			body:       `{"message": "Not Found"}`,
			wantType:   llmhttp.ErrTypeInvalidRequest,
		},
		{
			name:       "validation failed",
			statusCode: http.StatusUnprocessableEntity,
			body:       `{"message": "Validation Failed", "errors": [{"field": "position", "code": "invalid"}]}`,
			wantType:   llmhttp.ErrTypeInvalidRequest,
		},
		{
			name:       "server error",
			statusCode: http.StatusBadGateway,
			body:       "",
			wantType:   llmhttp.ErrTypeServiceUnavailable,
			retryable:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := github.MapHTTPError(tt.statusCode, []byte(tt.body))

			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.statusCode, err.StatusCode)
		})
	}
}

func TestMapHTTPError_ValidationDetailsInMessage(t *testing.T) {
	body := `{"message": "Validation Failed", "errors": [{"field": "position", "code": "invalid"}]}`
	err := github.MapHTTPError(http.StatusUnprocessableEntity, []byte(body))

	assert.Contains(t, err.Message, "Validation Failed")
	assert.Contains(t, err.Message, "position: invalid")
}

func TestMapHTTPError_NonJSONBody(t *testing.T) {
	err := github.MapHTTPError(http.StatusBadGateway, []byte("upstream gone"))
	assert.Contains(t, err.Message, "HTTP 502")
	assert.Contains(t, err.Message, "upstream gone")
}

func TestMapHTTPError_EmptyBody(t *testing.T) {
	err := github.MapHTTPError(http.StatusServiceUnavailable, nil)
	assert.Equal(t, "HTTP 503", err.Message)
}
