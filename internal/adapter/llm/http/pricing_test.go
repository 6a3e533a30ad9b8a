package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
)

func TestPricing_KnownModel(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	// gpt-4o: $2.50/1M input, $10.00/1M output
	cost := pricing.GetCost("openai", "gpt-4o", 1_000_000, 1_000_000)
	assert.InDelta(t, 12.50, cost, 0.0001)
}

func TestPricing_MiniModel(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	cost := pricing.GetCost("openai", "gpt-4o-mini", 2_000_000, 500_000)
	assert.InDelta(t, 0.30+0.30, cost, 0.0001)
}

func TestPricing_UnknownModel(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	assert.Zero(t, pricing.GetCost("openai", "gpt-99", 1000, 1000))
}

func TestPricing_UnknownProvider(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	assert.Zero(t, pricing.GetCost("acme", "gpt-4o", 1000, 1000))
}

func TestPricing_ZeroTokens(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	assert.Zero(t, pricing.GetCost("openai", "gpt-4o", 0, 0))
}
