package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/docvision/internal/models"
	"github.com/nikhilbhutani/docvision/internal/web"
)

// FormHandler serves the browser UI on top of the same upload pipeline as
// the JSON API.
type FormHandler struct {
	extract *ExtractHandler
}

func NewFormHandler(extract *ExtractHandler) *FormHandler {
	return &FormHandler{extract: extract}
}

func (h *FormHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, web.NewPage(h.extract.catalog, ""))
}

func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	files, model, err := h.extract.parseUpload(w, r)
	if err != nil {
		page := web.NewPage(h.extract.catalog, r.FormValue("model"))
		page.Notices = append(page.Notices, models.Notice{Level: models.NoticeError, Message: err.Error()})
		h.render(w, uploadStatus(err), page)
		return
	}

	report := h.extract.svc.Process(r.Context(), files, model)
	h.render(w, http.StatusOK, web.NewPage(h.extract.catalog, model.Label).WithReport(report))
}

func (h *FormHandler) render(w http.ResponseWriter, status int, page web.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := web.Render(w, page); err != nil {
		slog.Error("failed to render page", "error", err)
	}
}
