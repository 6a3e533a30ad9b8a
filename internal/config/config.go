package config

// Config represents the full application configuration.
type Config struct {
	GitHub        GitHubConfig        `yaml:"github"`
	Provider      ProviderConfig      `yaml:"provider"`
	HTTP          HTTPConfig          `yaml:"http"`
	Review        ReviewConfig        `yaml:"review"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitHubConfig holds settings for the hosting API.
type GitHubConfig struct {
	// BaseURL overrides the API endpoint (for GitHub Enterprise or tests).
	BaseURL string `yaml:"baseURL"`

	// Token is the access token. Supports ${GITHUB_TOKEN} expansion.
	Token string `yaml:"token"`

	// Owner and Repo identify the repository. Both default from the
	// origin remote of the working checkout when left empty.
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// BotUsername signs posted review summaries so readers can tell
	// which account the comments came from.
	BotUsername string `yaml:"botUsername"`
}

// ProviderConfig configures the LLM completion service.
type ProviderConfig struct {
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseURL"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// ReviewConfig configures what gets reviewed and how suggestions are pruned.
type ReviewConfig struct {
	// SkipFiles are glob patterns for files that are never reviewed.
	SkipFiles []string `yaml:"skipFiles"`

	// FocusOn restricts the review to matching paths when non-empty.
	FocusOn []string `yaml:"focusOn"`

	// Rules are ordered review instructions included in every prompt.
	Rules []string `yaml:"rules"`

	// SkipTopics are subjects the model is told not to comment on.
	SkipTopics []string `yaml:"skipTopics"`

	// MinSeverity is the lowest severity worth reporting
	// (critical, high, medium, low).
	MinSeverity string `yaml:"minSeverity"`

	// MaxCommentsPerFile caps inline comments per file. Zero is unlimited.
	MaxCommentsPerFile int `yaml:"maxCommentsPerFile"`

	// Tone adjusts the prompt register: strict, balanced, or encouraging.
	Tone string `yaml:"tone"`

	// SummaryComment posts a PR-level summary comment when no suggestion
	// could be placed inline.
	SummaryComment bool `yaml:"summaryComment"`

	// MaxFileConcurrency bounds how many files are reviewed in parallel.
	MaxFileConcurrency int `yaml:"maxFileConcurrency"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}
