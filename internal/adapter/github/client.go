package github

import (
	"bytes"
	"context"
	"encoding/json"
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
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// filesPerPage is the maximum page size the files endpoint allows.
	filesPerPage = 100
)

// Client is an HTTP client for the GitHub pull request API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig
}

// NewClient creates a GitHub API client. The token should be a personal
// access token or GITHUB_TOKEN from Actions.
func NewClient(cfg config.GitHubConfig, httpCfg config.HTTPConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := llmhttp.ParseTimeout(nil, httpCfg.Timeout, defaultTimeout)
	retryConf := llmhttp.BuildRetryConfig(config.ProviderConfig{}, httpCfg)

	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retryConf:  retryConf,
	}
}

// SetBaseURL sets a custom base URL (for testing or GitHub Enterprise).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// GetPullRequest fetches pull request metadata.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	var prResp PullRequestResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &prResp); err != nil {
		return domain.PullRequest{}, err
	}

	return domain.PullRequest{
		Number:  prResp.Number,
		Title:   prResp.Title,
		Body:    prResp.Body,
		HeadSHA: prResp.Head.SHA,
		BaseRef: prResp.Base.Ref,
		HeadRef: prResp.Head.Ref,
	}, nil
}

// ListChangedFiles fetches every changed file of a pull request, following
// pagination until a short page is returned.
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error) {
	var files []domain.ChangedFile

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.baseURL, owner, repo, number, filesPerPage, page)

		var pageFiles []ChangedFileResponse
		if err := c.doJSON(ctx, http.MethodGet, url, nil, &pageFiles); err != nil {
			return nil, err
		}

		for _, f := range pageFiles {
			files = append(files, domain.ChangedFile{
				Path:      f.Filename,
				Status:    f.Status,
				Patch:     f.Patch,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}

		if len(pageFiles) < filesPerPage {
			return files, nil
		}
	}
}

// CreateReviewInput contains all data needed to create a PR review.
type CreateReviewInput struct {
	Owner       string
	Repo        string
	PullNumber  int
	CommitSHA   string
	Event       ReviewEvent
	Summary     string
	Suggestions []PositionedSuggestion
}

// CreateReview posts a pull request review with inline comments. Only
// suggestions with a resolved diff position become inline comments; the
// rest are expected to be folded into the summary by the caller.
func (c *Client) CreateReview(ctx context.Context, input CreateReviewInput) (*CreateReviewResponse, error) {
	comments := BuildReviewComments(input.Suggestions)
	apiComments := make([]APIReviewComment, 0, len(comments))
	for _, comment := range comments {
		apiComments = append(apiComments, APIReviewComment(comment))
	}

	reqBody := CreateReviewRequest{
		CommitID: input.CommitSHA,
		Event:    input.Event,
		Body:     input.Summary,
		Comments: apiComments,
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews",
		c.baseURL, input.Owner, input.Repo, input.PullNumber)

	var reviewResp CreateReviewResponse
	if err := c.doJSON(ctx, http.MethodPost, url, reqBody, &reviewResp); err != nil {
		return nil, err
	}
	return &reviewResp, nil
}

// CreateIssueComment posts a plain comment on the pull request thread.
// Used as a fallback when no suggestion could be placed inline.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueCommentResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)

	var commentResp IssueCommentResponse
	if err := c.doJSON(ctx, http.MethodPost, url, IssueCommentRequest{Body: body}, &commentResp); err != nil {
		return nil, err
	}
	return &commentResp, nil
}

// doJSON executes one API call with retries, marshalling the request body
// (when non-nil) and decoding the response into out.
func (c *Client) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var jsonData []byte
	if body != nil {
		var err error
		jsonData, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var respBody []byte
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if jsonData != nil {
			reader = bytes.NewReader(jsonData)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   llmhttp.RedactURLSecrets(callErr.Error()),
				Retryable: true,
				Provider:  providerName,
			}
		}
		defer resp.Body.Close()

		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &llmhttp.Error{
				Type:       llmhttp.ErrTypeUnknown,
				Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
				Provider:   providerName,
			}
		}

		if resp.StatusCode >= 400 {
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		respBody = bodyBytes
		return nil
	}, c.retryConf)

	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
