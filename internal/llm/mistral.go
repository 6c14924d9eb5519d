package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MistralProvider serves both hosted endpoints: chat completions through the
// OpenAI-compatible client and document OCR through /ocr.
type MistralProvider struct {
	chat       *OpenAIProvider
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewMistralProvider(apiKey, baseURL string, httpClient *http.Client) *MistralProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &MistralProvider{
		chat:       NewOpenAIProvider("mistral", apiKey, baseURL, httpClient),
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (p *MistralProvider) Name() string { return "mistral" }

func (p *MistralProvider) VisionChat(ctx context.Context, req VisionRequest) (*ChatResponse, error) {
	return p.chat.VisionChat(ctx, req)
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type mistralOCRResponse struct {
	Model     string    `json:"model"`
	Pages     []OCRPage `json:"pages"`
	UsageInfo struct {
		PagesProcessed int `json:"pages_processed"`
	} `json:"usage_info"`
}

type mistralError struct {
	Message any    `json:"message"`
	Detail  any    `json:"detail"`
	Type    string `json:"type"`
}

func (p *MistralProvider) OCR(ctx context.Context, req OCRRequest) (*OCRResponse, error) {
	start := time.Now()

	body, err := json.Marshal(mistralOCRRequest{
		Model: req.Model,
		Document: mistralOCRDocument{
			Type:     "image_url",
			ImageURL: req.Image.DataURL(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ocr request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ocr", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create ocr request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mistral ocr: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mistral ocr (%d): %s", resp.StatusCode, errorMessage(respBody))
	}

	var out mistralOCRResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	return &OCRResponse{
		Provider:       "mistral",
		Model:          out.Model,
		Pages:          out.Pages,
		PagesProcessed: out.UsageInfo.PagesProcessed,
		LatencyMs:      time.Since(start).Milliseconds(),
	}, nil
}

func errorMessage(body []byte) string {
	var e mistralError
	if err := json.Unmarshal(body, &e); err == nil {
		for _, v := range []any{e.Message, e.Detail} {
			switch msg := v.(type) {
			case string:
				if msg != "" {
					return msg
				}
			case nil:
			default:
				if b, err := json.Marshal(msg); err == nil {
					return string(b)
				}
			}
		}
	}
	return strings.TrimSpace(string(body))
}
