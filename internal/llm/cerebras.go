package llm

import "net/http"

const (
	cerebrasAPIURL = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasModel  = "llama-3.3-70b"
)

// NewCerebrasClient returns a chat-completions client pointed at Cerebras,
// which uses the OpenAI-compatible request/response format.
func NewCerebrasClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = cerebrasModel
	}
	return &OpenAIClient{
		name:       ProviderCerebras,
		apiKey:     apiKey,
		model:      model,
		url:        cerebrasAPIURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}
