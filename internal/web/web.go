// Package web renders the upload form and its results page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/nikhilbhutani/docvision/internal/llm"
	"github.com/nikhilbhutani/docvision/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/index.html"))

// Title is shown as the page heading.
const Title = "Mistral OCR and Vision Models"

// Page is the data the form template renders.
type Page struct {
	Title    string
	Models   []llm.Model
	Selected string
	Accept   string
	Notices  []models.Notice
	Outcomes []models.Outcome
}

func NewPage(catalog *llm.Catalog, selected string) Page {
	if selected == "" {
		selected = catalog.Default().Label
	}
	return Page{
		Title:    Title,
		Models:   catalog.Models(),
		Selected: selected,
		Accept:   ".pdf,.jpg,.jpeg,.png",
	}
}

// WithReport copies the banners and results of a submission into the page,
// in the order the files were uploaded.
func (p Page) WithReport(r *models.Report) Page {
	p.Outcomes = append(p.Outcomes, r.Outcomes...)
	return p
}

func Render(w io.Writer, p Page) error {
	if err := pageTemplate.ExecuteTemplate(w, "index.html", p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
