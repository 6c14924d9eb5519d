package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nikhilbhutani/docvision/internal/config"
)

// Capability says which hosted endpoint an image goes to for a model.
type Capability string

const (
	CapabilityOCR  Capability = "ocr"
	CapabilityChat Capability = "chat"
)

// Model is one selectable entry of the model catalog.
type Model struct {
	Label      string     `json:"label" yaml:"label"`
	ID         string     `json:"id" yaml:"id"`
	Provider   string     `json:"provider" yaml:"provider"`
	Capability Capability `json:"capability" yaml:"capability"`
}

func (m Model) IsOCR() bool { return m.Capability == CapabilityOCR }

// Catalog is the ordered, immutable list of models a user can pick from.
type Catalog struct {
	models       []Model
	defaultLabel string
}

// MistralModels is the canonical Mistral selection. pixtral and
// mistral-small accept images through chat completions; mistral-ocr only
// through the OCR endpoint.
var MistralModels = []Model{
	{Label: "mistral-ocr-latest", ID: "mistral-ocr-latest", Provider: "mistral", Capability: CapabilityOCR},
	{Label: "pixtral 12B", ID: "pixtral-12b-2409", Provider: "mistral", Capability: CapabilityChat},
	{Label: "mistral-small-latest", ID: "mistral-small-latest", Provider: "mistral", Capability: CapabilityChat},
}

func NewCatalog(models []Model, defaultLabel string) *Catalog {
	c := &Catalog{models: append([]Model(nil), models...)}
	if _, ok := c.Lookup(defaultLabel); ok {
		c.defaultLabel = defaultLabel
	} else if len(c.models) > 0 {
		c.defaultLabel = c.models[0].Label
	}
	return c
}

// CatalogFromConfig lists the Mistral models, the optional providers that
// have credentials or an endpoint configured, then extra.
func CatalogFromConfig(cfg config.LLMConfig, extra ...Model) *Catalog {
	models := append([]Model(nil), MistralModels...)
	if cfg.AnthropicKey != "" && cfg.AnthropicModel != "" {
		models = append(models, Model{
			Label: "claude (vision)", ID: cfg.AnthropicModel, Provider: "anthropic", Capability: CapabilityChat,
		})
	}
	if cfg.OllamaURL != "" && cfg.OllamaModel != "" {
		models = append(models, Model{
			Label: cfg.OllamaModel + " (local)", ID: cfg.OllamaModel, Provider: "ollama", Capability: CapabilityChat,
		})
	}
	for _, m := range extra {
		if _, dup := findLabel(models, m.Label); !dup {
			models = append(models, m)
		}
	}
	return NewCatalog(models, cfg.DefaultModel)
}

func findLabel(models []Model, label string) (Model, bool) {
	for _, m := range models {
		if m.Label == label {
			return m, true
		}
	}
	return Model{}, false
}

type modelsFile struct {
	Models []Model `yaml:"models"`
}

// LoadModelsFile reads extra catalog entries from a YAML file of the form
//
//	models:
//	  - label: pixtral large
//	    id: pixtral-large-latest
//	    provider: mistral
//	    capability: chat
func LoadModelsFile(path string) ([]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}
	return ParseModels(data)
}

func ParseModels(data []byte) ([]Model, error) {
	var f modelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse models file: %w", err)
	}

	seen := make(map[string]bool, len(f.Models))
	for i, m := range f.Models {
		if m.Label == "" || m.ID == "" || m.Provider == "" {
			return nil, fmt.Errorf("model %d: label, id and provider are required", i)
		}
		if m.Capability != CapabilityOCR && m.Capability != CapabilityChat {
			return nil, fmt.Errorf("model %q: unknown capability %q", m.Label, m.Capability)
		}
		if seen[m.Label] {
			return nil, fmt.Errorf("model %q: duplicate label", m.Label)
		}
		seen[m.Label] = true
	}
	return f.Models, nil
}

// Lookup finds a model by label, falling back to its hosted id.
func (c *Catalog) Lookup(name string) (Model, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Model{}, false
	}
	if m, ok := findLabel(c.models, name); ok {
		return m, true
	}
	for _, m := range c.models {
		if m.ID == name {
			return m, true
		}
	}
	return Model{}, false
}

func (c *Catalog) Default() Model {
	m, _ := c.Lookup(c.defaultLabel)
	return m
}

func (c *Catalog) Models() []Model {
	return append([]Model(nil), c.models...)
}
