package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
)

const providerName = "github"

// MapHTTPError maps GitHub API HTTP status codes to typed llmhttp.Error,
// so the shared retry logic knows which failures are transient.
func MapHTTPError(statusCode int, body []byte) *llmhttp.Error {
	message := parseErrorMessage(statusCode, body)

	var errType llmhttp.ErrorType
	var retryable bool

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = llmhttp.ErrTypeAuthentication
	case http.StatusTooManyRequests:
		errType = llmhttp.ErrTypeRateLimit
		retryable = true
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		errType = llmhttp.ErrTypeInvalidRequest
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = llmhttp.ErrTypeServiceUnavailable
		retryable = true
	default:
		errType = llmhttp.ErrTypeUnknown
	}

	return &llmhttp.Error{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Provider:   providerName,
	}
}

// parseErrorMessage extracts a user-friendly error message from GitHub's response.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 100 {
			bodyPreview = bodyPreview[:100] + "..."
		}
		if bodyPreview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, bodyPreview)
	}

	if errResp.Message == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}

	// Validation errors (422) carry field-level details worth surfacing.
	if len(errResp.Errors) > 0 {
		var details []string
		for _, e := range errResp.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			} else if e.Field != "" {
				details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
			}
		}
		if len(details) > 0 {
			return fmt.Sprintf("%s: %s", errResp.Message, strings.Join(details, "; "))
		}
	}

	return errResp.Message
}
