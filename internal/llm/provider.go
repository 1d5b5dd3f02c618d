package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderMock      = "mock"
)

const defaultHTTPTimeout = 60 * time.Second

// Completer sends a single-turn prompt and returns the raw text answer.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// StatusError is a non-200 answer from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Code, e.Body)
}

// creditMarkers are body fragments providers use when billing blocks a call.
var creditMarkers = []string{"credit balance", "insufficient_quota", "billing", "exceeded your current quota"}

// CreditsLow reports whether the provider refused the call for billing.
func (e *StatusError) CreditsLow() bool {
	if e.Code == http.StatusPaymentRequired {
		return true
	}
	if e.Code >= 500 {
		return false
	}
	body := strings.ToLower(e.Body)
	for _, m := range creditMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// Unwrap exposes domain.ErrCreditsLow for billing refusals.
func (e *StatusError) Unwrap() error {
	if e.CreditsLow() {
		return domain.ErrCreditsLow
	}
	return nil
}

// Temporary reports whether retrying the same request may succeed. A quota
// refusal dressed as 429 is not.
func (e *StatusError) Temporary() bool {
	if e.CreditsLow() {
		return false
	}
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout || e.Code >= 500
}

// NewClient creates a completer based on the provider name.
// Returns an error if the provider is unknown or the API key is empty.
func NewClient(provider, apiKey, model string) (Completer, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey, model), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey, model), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey, model), nil

	case ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewCerebrasClient(apiKey, model), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, gemini, cerebras, mock)", provider)
	}
}

// New builds the oracle for a provider. The mock provider returns a MockOracle.
func New(provider, apiKey, model string, retry RetryPolicy, logger *zap.Logger) (domain.Oracle, error) {
	if provider == ProviderMock {
		return NewMockOracle(), nil
	}
	client, err := NewClient(provider, apiKey, model)
	if err != nil {
		return nil, err
	}
	return NewOracle(client, retry, logger), nil
}
