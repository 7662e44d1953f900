package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider talks to the Google Generative Language REST API. Every
// request disables safety filtering for all harm categories: callers want raw
// model output, not policy refusals.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: externalHTTPClient,
	}
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }

type geminiRequest struct {
	Contents       []geminiContent       `json:"contents"`
	SafetySettings []geminiSafetySetting `json:"safetySettings"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

var permissiveSafetySettings = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *geminiAPIError `json:"error"`
}

type geminiAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (Generation, error) {
	reqBody := geminiRequest{
		Contents:       []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		SafetySettings: permissiveSafetySettings,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Generation{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Generation{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Generation{}, fmt.Errorf("Gemini API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, fmt.Errorf("reading response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			return Generation{}, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		}
		return Generation{}, fmt.Errorf("parsing Gemini response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		if resp.StatusCode == http.StatusTooManyRequests || parsed.Error.Status == "RESOURCE_EXHAUSTED" {
			return Generation{}, fmt.Errorf("%w: %s", ErrRateLimited, parsed.Error.Message)
		}
		return Generation{}, fmt.Errorf("Gemini API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Generation{}, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Generation{}, fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return Generation{Blocked: true, BlockReason: parsed.PromptFeedback.BlockReason}, nil
	}

	var b strings.Builder
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return Generation{Text: b.String()}, nil
}

type geminiModelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// ResolveModel probes the models endpoint and switches the provider to the
// first preferred model that supports generateContent. When listing fails or
// nothing matches, the provider keeps the configured fallback and may still
// fail at call time.
func (p *GeminiProvider) ResolveModel(ctx context.Context, preferred []string) string {
	fallback := p.model

	url := fmt.Sprintf("%s/models?key=%s", p.baseURL, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fallback
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("gemini model listing failed, keeping %s: %v", fallback, err)
		return fallback
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Printf("gemini model listing failed (status %d), keeping %s", resp.StatusCode, fallback)
		return fallback
	}

	var list geminiModelList
	if err := json.Unmarshal(respBody, &list); err != nil {
		log.Printf("gemini model listing unparsable, keeping %s: %v", fallback, err)
		return fallback
	}

	available := make(map[string]bool, len(list.Models))
	for _, m := range list.Models {
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				available[strings.TrimPrefix(m.Name, "models/")] = true
				break
			}
		}
	}

	for _, want := range preferred {
		if available[want] {
			p.model = want
			return want
		}
	}
	if !available[fallback] {
		log.Printf("gemini fallback model %s not advertised by the API, trying anyway", fallback)
	}
	return fallback
}
