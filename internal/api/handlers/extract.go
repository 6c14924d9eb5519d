package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/docvision/internal/audit"
	"github.com/nikhilbhutani/docvision/internal/auth"
	"github.com/nikhilbhutani/docvision/internal/document"
	"github.com/nikhilbhutani/docvision/internal/llm"
	"github.com/nikhilbhutani/docvision/internal/models"
)

const multipartMemory = 32 << 20

var (
	errUnknownModel = errors.New("unknown model")
	errTooLarge     = errors.New("upload too large")
)

type ExtractHandler struct {
	svc      *document.Service
	catalog  *llm.Catalog
	audit    audit.Recorder
	maxBytes int64
}

func NewExtractHandler(svc *document.Service, catalog *llm.Catalog, rec audit.Recorder, maxBytes int64) *ExtractHandler {
	return &ExtractHandler{svc: svc, catalog: catalog, audit: rec, maxBytes: maxBytes}
}

// Extract runs the uploaded files through the selected model and returns
// the report as JSON. Per-file failures are notices, not HTTP errors.
// Authenticated reports carry the token subject.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	files, model, err := h.parseUpload(w, r)
	if err != nil {
		writeJSON(w, uploadStatus(err), map[string]string{"error": err.Error()})
		return
	}

	report := h.svc.Process(r.Context(), files, model)
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		report.RequestedBy = claims.Subject
		slog.Info("extraction requested", "subject", claims.Subject, "submission_id", report.SubmissionID)
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ExtractHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models":  h.catalog.Models(),
		"default": h.catalog.Default().Label,
	})
}

func (h *ExtractHandler) Submission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission ID"})
		return
	}

	events, err := h.audit.ListBySubmission(r.Context(), id)
	if err != nil {
		slog.Error("failed to list extraction events", "submission_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load submission"})
		return
	}
	if len(events) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "submission not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"submission_id": id, "events": events})
}

// parseUpload reads the "files" and "model" fields of a multipart form.
// A request without a multipart body carries zero files.
func (h *ExtractHandler) parseUpload(w http.ResponseWriter, r *http.Request) ([]models.UploadedFile, llm.Model, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var files []models.UploadedFile
	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, llm.Model{}, fmt.Errorf("%w: limit is %d MB", errTooLarge, h.maxBytes>>20)
		}
		return nil, llm.Model{}, fmt.Errorf("invalid multipart form: %w", err)
	default:
		defer r.MultipartForm.RemoveAll()
		files, err = readFiles(r.MultipartForm.File["files"])
		if err != nil {
			return nil, llm.Model{}, err
		}
	}

	model, err := h.resolveModel(r.FormValue("model"))
	if err != nil {
		return nil, llm.Model{}, err
	}
	return files, model, nil
}

func (h *ExtractHandler) resolveModel(name string) (llm.Model, error) {
	if name == "" {
		return h.catalog.Default(), nil
	}
	m, ok := h.catalog.Lookup(name)
	if !ok {
		return llm.Model{}, fmt.Errorf("%w %q", errUnknownModel, name)
	}
	return m, nil
}

// readFiles keeps upload order and drops the empty part browsers send when
// no file was picked.
func readFiles(headers []*multipart.FileHeader) ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, models.NewUploadedFile(fh.Filename, data))
	}
	return files, nil
}

func uploadStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
