package observability

import (
	"context"
	"strings"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/config"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ReviewLogger adapts llmhttp.Logger to the review.Logger port so the
// orchestrator shares one structured logging backend with the HTTP clients.
type ReviewLogger struct {
	logger llmhttp.Logger
}

// NewReviewLogger creates a review logger adapter.
func NewReviewLogger(logger llmhttp.Logger) review.Logger {
	return &ReviewLogger{logger: logger}
}

// LogWarning logs a warning message with structured fields.
func (l *ReviewLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *ReviewLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}

// BuildLogger constructs the process-wide structured logger from config.
func BuildLogger(cfg config.LoggingConfig) *llmhttp.DefaultLogger {
	level := llmhttp.LogLevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = llmhttp.LogLevelDebug
	case "error":
		level = llmhttp.LogLevelError
	}

	format := llmhttp.LogFormatHuman
	if strings.ToLower(cfg.Format) == "json" {
		format = llmhttp.LogFormatJSON
	}

	return llmhttp.NewDefaultLogger(level, format, cfg.RedactAPIKeys)
}
