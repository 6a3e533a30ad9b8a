package http_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/config"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestParseTimeout_ProviderOverrideWins(t *testing.T) {
	got := llmhttp.ParseTimeout(strPtr("90s"), "60s", 30*time.Second)
	assert.Equal(t, 90*time.Second, got)
}

func TestParseTimeout_GlobalFallback(t *testing.T) {
	got := llmhttp.ParseTimeout(nil, "45s", 30*time.Second)
	assert.Equal(t, 45*time.Second, got)
}

func TestParseTimeout_DefaultFallback(t *testing.T) {
	got := llmhttp.ParseTimeout(nil, "", 30*time.Second)
	assert.Equal(t, 30*time.Second, got)
}

func TestParseTimeout_InvalidOverrideFallsThrough(t *testing.T) {
	got := llmhttp.ParseTimeout(strPtr("not-a-duration"), "45s", 30*time.Second)
	assert.Equal(t, 45*time.Second, got)
}

func TestParseTimeout_NegativeRejected(t *testing.T) {
	got := llmhttp.ParseTimeout(strPtr("-5s"), "", 30*time.Second)
	assert.Equal(t, 30*time.Second, got)
}

func TestBuildRetryConfig_GlobalDefaults(t *testing.T) {
	httpCfg := config.HTTPConfig{
		MaxRetries:        5,
		InitialBackoff:    "2s",
		MaxBackoff:        "32s",
		BackoffMultiplier: 2.0,
	}

	rc := llmhttp.BuildRetryConfig(config.ProviderConfig{}, httpCfg)

	assert.Equal(t, 5, rc.MaxRetries)
	assert.Equal(t, 2*time.Second, rc.InitialBackoff)
	assert.Equal(t, 32*time.Second, rc.MaxBackoff)
	assert.Equal(t, 2.0, rc.Multiplier)
}

func TestBuildRetryConfig_ProviderOverrides(t *testing.T) {
	httpCfg := config.HTTPConfig{
		MaxRetries:        5,
		InitialBackoff:    "2s",
		MaxBackoff:        "32s",
		BackoffMultiplier: 2.0,
	}
	provider := config.ProviderConfig{
		MaxRetries:     intPtr(2),
		InitialBackoff: strPtr("500ms"),
		MaxBackoff:     strPtr("8s"),
	}

	rc := llmhttp.BuildRetryConfig(provider, httpCfg)

	assert.Equal(t, 2, rc.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, rc.InitialBackoff)
	assert.Equal(t, 8*time.Second, rc.MaxBackoff)
}
