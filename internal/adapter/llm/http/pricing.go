package http

// Pricing calculates API costs based on token usage.
type Pricing interface {
	// GetCost calculates cost for a given model and token usage
	GetCost(provider, model string, tokensIn, tokensOut int) float64
}

// ModelPricing contains pricing information for a model.
type ModelPricing struct {
	InputPer1M  float64 // Cost per 1M input tokens in USD
	OutputPer1M float64 // Cost per 1M output tokens in USD
}

// DefaultPricing provides cost calculation based on provider pricing.
type DefaultPricing struct {
	prices map[string]map[string]ModelPricing
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{
		prices: buildPricingTable(),
	}
}

// GetCost calculates the cost for a given request.
// Unknown providers or models cost zero rather than guessing.
func (p *DefaultPricing) GetCost(provider, model string, tokensIn, tokensOut int) float64 {
	providerPrices, ok := p.prices[provider]
	if !ok {
		return 0.0
	}

	modelPrice, ok := providerPrices[model]
	if !ok {
		return 0.0
	}

	inputCost := float64(tokensIn) / 1_000_000.0 * modelPrice.InputPer1M
	outputCost := float64(tokensOut) / 1_000_000.0 * modelPrice.OutputPer1M

	return inputCost + outputCost
}

// buildPricingTable returns pricing data for the supported models.
// Source: https://openai.com/api/pricing/
func buildPricingTable() map[string]map[string]ModelPricing {
	return map[string]map[string]ModelPricing{
		"openai": {
			"gpt-4o": {
				InputPer1M:  2.50,
				OutputPer1M: 10.00,
			},
			"gpt-4o-2024-08-06": {
				InputPer1M:  2.50,
				OutputPer1M: 10.00,
			},
			"gpt-4o-mini": {
				InputPer1M:  0.15,
				OutputPer1M: 0.60,
			},
			"gpt-4o-mini-2024-07-18": {
				InputPer1M:  0.15,
				OutputPer1M: 0.60,
			},
			"o1": {
				InputPer1M:  15.00,
				OutputPer1M: 60.00,
			},
			"o1-mini": {
				InputPer1M:  3.00,
				OutputPer1M: 12.00,
			},
			"o3-mini": {
				InputPer1M:  1.10,
				OutputPer1M: 4.40,
			},
		},
	}
}
