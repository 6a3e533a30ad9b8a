package github

// GitHub REST API types.
// See: https://docs.github.com/en/rest/pulls

// ReviewEvent represents the action to take when submitting a review.
type ReviewEvent string

const (
	// EventComment submits the review without approval.
	EventComment ReviewEvent = "COMMENT"

	// EventApprove approves the pull request.
	EventApprove ReviewEvent = "APPROVE"

	// EventRequestChanges requests changes to the pull request.
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// PullRequestResponse is the response from GET /repos/{owner}/{repo}/pulls/{pull_number}.
type PullRequestResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	Head   Ref    `json:"head"`
	Base   Ref    `json:"base"`
}

// Ref identifies one side of a pull request.
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// ChangedFileResponse is one entry from GET /repos/{owner}/{repo}/pulls/{pull_number}/files.
// Patch is absent for binary and very large files.
type ChangedFileResponse struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CreateReviewRequest is the request body for POST /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type CreateReviewRequest struct {
	// CommitID is the SHA of the head commit of the PR.
	CommitID string `json:"commit_id"`

	// Event is the review action: APPROVE, REQUEST_CHANGES, or COMMENT.
	Event ReviewEvent `json:"event"`

	// Body is the review summary comment.
	Body string `json:"body"`

	// Comments are the inline review comments at specific diff positions.
	Comments []APIReviewComment `json:"comments,omitempty"`
}

// APIReviewComment is an inline comment at a specific diff position.
type APIReviewComment struct {
	// Path is the relative path of the file to comment on.
	Path string `json:"path"`

	// Position is the 1-based index into the file's diff line stream,
	// counting every line of the patch including hunk headers.
	Position int `json:"position"`

	// Body is the comment text (GitHub-flavored Markdown).
	Body string `json:"body"`
}

// CreateReviewResponse is the response from the review creation endpoint.
type CreateReviewResponse struct {
	ID          int64  `json:"id"`
	NodeID      string `json:"node_id"`
	User        User   `json:"user"`
	Body        string `json:"body"`
	State       string `json:"state"` // PENDING, APPROVED, CHANGES_REQUESTED, COMMENTED, DISMISSED
	HTMLURL     string `json:"html_url"`
	SubmittedAt string `json:"submitted_at"`
}

// IssueCommentRequest is the request body for POST /repos/{owner}/{repo}/issues/{issue_number}/comments.
type IssueCommentRequest struct {
	Body string `json:"body"`
}

// IssueCommentResponse is the response from the issue comment endpoint.
type IssueCommentResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

// User represents a GitHub user in responses.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// ErrorResponse represents an error response from the GitHub API.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
