package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikhilbhutani/docvision/internal/config"
)

type gateway struct {
	providers map[string]Provider
	catalog   *Catalog
}

// NewGateway builds the providers that have credentials in cfg. Calls are
// not retried; a failed call is reported to the caller as is.
func NewGateway(cfg config.LLMConfig, extra ...Model) Gateway {
	hc := &http.Client{Timeout: cfg.HTTPTimeout}

	var providers []Provider
	if cfg.MistralKey != "" {
		providers = append(providers, NewMistralProvider(cfg.MistralKey, cfg.MistralBaseURL, hc))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey, hc))
	}
	if cfg.OllamaURL != "" {
		providers = append(providers, NewOpenAIProvider("ollama", "ollama", strings.TrimRight(cfg.OllamaURL, "/")+"/v1", hc))
	}

	return NewGatewayWithProviders(CatalogFromConfig(cfg, extra...), providers...)
}

func NewGatewayWithProviders(catalog *Catalog, providers ...Provider) Gateway {
	g := &gateway{
		providers: make(map[string]Provider, len(providers)),
		catalog:   catalog,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Catalog() *Catalog { return g.catalog }

func (g *gateway) provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *gateway) OCR(ctx context.Context, m Model, img Image) (*OCRResponse, error) {
	p, err := g.provider(m.Provider)
	if err != nil {
		return nil, err
	}
	ocr, ok := p.(OCRProcessor)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support ocr", m.Provider)
	}

	resp, err := ocr.OCR(ctx, OCRRequest{Model: m.ID, Image: img})
	if err != nil {
		return nil, err
	}
	slog.Debug("ocr call", "provider", m.Provider, "model", m.ID, "pages", len(resp.Pages), "latency_ms", resp.LatencyMs)
	return resp, nil
}

func (g *gateway) VisionChat(ctx context.Context, m Model, prompt string, img Image) (*ChatResponse, error) {
	p, err := g.provider(m.Provider)
	if err != nil {
		return nil, err
	}
	chat, ok := p.(VisionChatter)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support vision chat", m.Provider)
	}

	resp, err := chat.VisionChat(ctx, VisionRequest{Model: m.ID, Prompt: prompt, Image: img})
	if err != nil {
		return nil, err
	}
	slog.Debug("vision chat call", "provider", m.Provider, "model", m.ID, "tokens", resp.TotalTokens, "latency_ms", resp.LatencyMs)
	return resp, nil
}
