package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/config"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 60 * time.Second

	systemPrompt = "You are a code review assistant. Analyze the diff you are given and respond with feedback in the JSON format described by the user message. Respond with JSON only."
)

// isReasoningModel returns true for o-series reasoning models.
// These models use max_completion_tokens instead of max_tokens and
// reject the temperature parameter.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return m == "o1" || strings.HasPrefix(m, "o1-") || strings.HasPrefix(m, "o3-") || strings.HasPrefix(m, "o4-")
}

// Client talks to the OpenAI Chat Completion API and turns model output
// into domain file reviews.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	retryConfig llmhttp.RetryConfig
	client      *http.Client

	logger  llmhttp.Logger
	metrics llmhttp.Metrics
	pricing llmhttp.Pricing
}

// NewClient creates an OpenAI client from provider and global HTTP config.
func NewClient(provider config.ProviderConfig, httpCfg config.HTTPConfig) *Client {
	baseURL := provider.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := llmhttp.ParseTimeout(provider.Timeout, httpCfg.Timeout, defaultTimeout)

	return &Client{
		apiKey:      provider.APIKey,
		model:       provider.Model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: provider.Temperature,
		maxTokens:   provider.MaxTokens,
		retryConfig: llmhttp.BuildRetryConfig(provider, httpCfg),
		client:      &http.Client{Timeout: timeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetLogger attaches a request/response logger.
func (c *Client) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// SetMetrics attaches a metrics recorder.
func (c *Client) SetMetrics(metrics llmhttp.Metrics) {
	c.metrics = metrics
}

// SetPricing attaches a cost calculator.
func (c *Client) SetPricing(pricing llmhttp.Pricing) {
	c.pricing = pricing
}

// CallOptions contains options for a single API call.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text         string
	TokensIn     int
	TokensOut    int
	Model        string
	FinishReason string
}

// Call makes a request to the OpenAI Chat Completion API with retries.
func (c *Client) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	reqBody := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	if options.MaxTokens > 0 {
		if isReasoningModel(c.model) {
			reqBody.MaxCompletionTokens = options.MaxTokens
		} else {
			reqBody.MaxTokens = options.MaxTokens
		}
	}
	if !isReasoningModel(c.model) {
		reqBody.Temperature = options.Temperature
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    providerName,
			Model:       c.model,
			Timestamp:   time.Now(),
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(providerName, c.model)
	}

	start := time.Now()
	var response *APIResponse

	// The request is rebuilt inside the operation so each retry gets a
	// fresh body reader.
	operation := func(ctx context.Context) error {
		url := c.baseURL + "/v1/chat/completions"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return llmhttp.NewTimeoutError(providerName, llmhttp.RedactURLSecrets(err.Error()))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleErrorResponse(resp.StatusCode, body)
		}

		var chatResp ChatCompletionResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return llmhttp.NewMalformedResponseError(providerName, "invalid completion JSON: "+err.Error())
		}
		if len(chatResp.Choices) == 0 {
			return llmhttp.NewMalformedResponseError(providerName, "no choices in response")
		}

		response = &APIResponse{
			Text:         chatResp.Choices[0].Message.Content,
			TokensIn:     chatResp.Usage.PromptTokens,
			TokensOut:    chatResp.Usage.CompletionTokens,
			Model:        chatResp.Model,
			FinishReason: chatResp.Choices[0].FinishReason,
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retryConfig); err != nil {
		c.recordError(ctx, err, time.Since(start))
		return nil, err
	}

	duration := time.Since(start)
	cost := 0.0
	if c.pricing != nil {
		cost = c.pricing.GetCost(providerName, c.model, response.TokensIn, response.TokensOut)
	}
	if c.metrics != nil {
		c.metrics.RecordDuration(providerName, c.model, duration)
		c.metrics.RecordTokens(providerName, c.model, response.TokensIn, response.TokensOut)
		c.metrics.RecordCost(providerName, c.model, cost)
	}
	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:     providerName,
			Model:        c.model,
			Timestamp:    time.Now(),
			Duration:     duration,
			TokensIn:     response.TokensIn,
			TokensOut:    response.TokensOut,
			Cost:         cost,
			StatusCode:   http.StatusOK,
			FinishReason: response.FinishReason,
		})
	}

	return response, nil
}

// ReviewFile asks the model to review one changed file and parses the
// output into a domain FileReview. A response that fails strict parsing
// is an error; the caller decides whether to skip the file.
func (c *Client) ReviewFile(ctx context.Context, file domain.ChangedFile, prompt string) (domain.FileReview, error) {
	apiResp, err := c.Call(ctx, prompt, CallOptions{
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return domain.FileReview{}, err
	}

	raw, err := llmhttp.ParseFileReview(apiResp.Text)
	if err != nil {
		if c.logger != nil {
			c.logger.LogWarning(ctx, "model response failed strict parsing", map[string]interface{}{
				"file":     file.Path,
				"error":    err.Error(),
				"response": llmhttp.TruncateForLogging(apiResp.Text),
			})
		}
		return domain.FileReview{}, llmhttp.NewMalformedResponseError(providerName, err.Error())
	}

	suggestions := make([]domain.Suggestion, 0, len(raw.Suggestions))
	for _, s := range raw.Suggestions {
		suggestions = append(suggestions, domain.NewSuggestion(domain.SuggestionInput{
			File:     file.Path,
			Line:     s.Line,
			Severity: s.Severity,
			Category: s.Category,
			Comment:  s.Comment,
			Snippet:  s.Snippet,
		}))
	}

	cost := 0.0
	if c.pricing != nil {
		cost = c.pricing.GetCost(providerName, c.model, apiResp.TokensIn, apiResp.TokensOut)
	}

	return domain.FileReview{
		File:        file.Path,
		Summary:     raw.Summary,
		Suggestions: suggestions,
		ModelName:   apiResp.Model,
		TokensIn:    apiResp.TokensIn,
		TokensOut:   apiResp.TokensOut,
		Cost:        cost,
	}, nil
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError(providerName, message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(providerName, message)
	case http.StatusNotFound:
		return llmhttp.NewModelNotFoundError(providerName, message)
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError(providerName, message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return llmhttp.NewServiceUnavailableError(providerName, message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	}
}

func (c *Client) recordError(ctx context.Context, err error, duration time.Duration) {
	errType := llmhttp.ErrTypeUnknown
	statusCode := 0
	retryable := false
	var typed *llmhttp.Error
	if errors.As(err, &typed) {
		errType = typed.Type
		statusCode = typed.StatusCode
		retryable = typed.Retryable
	}

	if c.metrics != nil {
		c.metrics.RecordError(providerName, c.model, errType)
	}
	if c.logger != nil {
		c.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider:   providerName,
			Model:      c.model,
			Timestamp:  time.Now(),
			Duration:   duration,
			Error:      err,
			ErrorType:  errType,
			StatusCode: statusCode,
			Retryable:  retryable,
		})
	}
}
