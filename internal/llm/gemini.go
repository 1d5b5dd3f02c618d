package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiModel   = "gemini-2.0-flash"
)

type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = geminiModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float32 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

func (c *GeminiClient) Name() string { return ProviderGemini }

func (c *GeminiClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}, Role: "user"}}}
	req.GenerationConfig.MaxOutputTokens = maxTokens

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	var result geminiResponse
	if err := postJSON(ctx, c.httpClient, ProviderGemini, endpoint, nil, req, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", result.Error.Message)
	}

	var parts []string
	for _, cand := range result.Candidates {
		for _, p := range cand.Content.Parts {
			parts = append(parts, p.Text)
		}
		if len(parts) > 0 {
			break
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini API returned no content")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
