package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is a hosted model vendor. A provider implements OCRProcessor,
// VisionChatter, or both.
type Provider interface {
	Name() string
}

// OCRProcessor turns a document image into per-page markdown.
type OCRProcessor interface {
	OCR(ctx context.Context, req OCRRequest) (*OCRResponse, error)
}

// VisionChatter answers a text prompt about an image.
type VisionChatter interface {
	VisionChat(ctx context.Context, req VisionRequest) (*ChatResponse, error)
}

// Gateway routes catalog models to the provider that serves them.
type Gateway interface {
	OCR(ctx context.Context, m Model, img Image) (*OCRResponse, error)
	VisionChat(ctx context.Context, m Model, prompt string, img Image) (*ChatResponse, error)
	Catalog() *Catalog
}

// Image is an encoded image ready to be sent to a provider.
type Image struct {
	MIMEType string
	Base64   string
}

func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Base64)
}

type OCRRequest struct {
	Model string
	Image Image
}

type OCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type OCRResponse struct {
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	Pages          []OCRPage `json:"pages"`
	PagesProcessed int       `json:"pages_processed"`
	LatencyMs      int64     `json:"latency_ms"`
}

// Text joins the markdown of every page in order, without separators.
func (r *OCRResponse) Text() string {
	var b strings.Builder
	for _, p := range r.Pages {
		b.WriteString(p.Markdown)
	}
	return b.String()
}

type VisionRequest struct {
	Model     string
	Prompt    string
	Image     Image
	MaxTokens int
}

// ChatResponse is the output from a vision chat completion.
type ChatResponse struct {
	ID           string `json:"id"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
}
