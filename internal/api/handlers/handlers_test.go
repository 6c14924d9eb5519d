package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docvision/internal/audit"
	"github.com/nikhilbhutani/docvision/internal/document"
	"github.com/nikhilbhutani/docvision/internal/llm"
	"github.com/nikhilbhutani/docvision/internal/models"
	"github.com/nikhilbhutani/docvision/internal/multimodal"
)

type stubGateway struct {
	catalog *llm.Catalog
	ocr     int
	chat    int
}

func (g *stubGateway) OCR(context.Context, llm.Model, llm.Image) (*llm.OCRResponse, error) {
	g.ocr++
	return &llm.OCRResponse{Pages: []llm.OCRPage{{Markdown: "ocr text"}}}, nil
}

func (g *stubGateway) VisionChat(context.Context, llm.Model, string, llm.Image) (*llm.ChatResponse, error) {
	g.chat++
	return &llm.ChatResponse{Content: "chat text"}, nil
}

func (g *stubGateway) Catalog() *llm.Catalog { return g.catalog }

type listRecorder struct {
	events []models.ExtractionEvent
	err    error
}

func (r *listRecorder) Record(_ context.Context, ev models.ExtractionEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *listRecorder) ListBySubmission(_ context.Context, id uuid.UUID) ([]models.ExtractionEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []models.ExtractionEvent
	for _, ev := range r.events {
		if ev.SubmissionID == id {
			out = append(out, ev)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T, maxBytes int64) (http.Handler, *stubGateway, *listRecorder) {
	t.Helper()
	gw := &stubGateway{catalog: llm.NewCatalog(llm.MistralModels, "")}
	rec := &listRecorder{}
	svc := document.NewService(multimodal.NewVisionService(gw, ""), document.WithRecorder(rec))
	eh := NewExtractHandler(svc, gw.Catalog(), rec, maxBytes)
	fh := NewFormHandler(eh)

	r := chi.NewRouter()
	r.Get("/", fh.Index)
	r.Post("/", fh.Submit)
	r.Post("/api/v1/extract", eh.Extract)
	r.Get("/api/v1/models", eh.Models)
	r.Get("/api/v1/submissions/{id}", eh.Submission)
	return r, gw, rec
}

type part struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, model string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if model != "" {
		require.NoError(t, mw.WriteField("model", model))
	}
	for _, p := range parts {
		fw, err := mw.CreateFormFile("files", p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) models.Report {
	t.Helper()
	var report models.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	return report
}

func TestExtractAPIRoutesByModel(t *testing.T) {
	h, gw, _ := newTestRouter(t, 1<<20)

	body, ct := multipartBody(t, "pixtral 12B",
		part{"a.png", pngFile(t)},
		part{"b.txt", []byte("nope")},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeReport(t, rec)
	assert.Equal(t, "pixtral 12B", report.Model)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "a.png", report.Results[0].SourceFileName)
	assert.Equal(t, "chat text", report.Results[0].Text)
	require.Len(t, report.Notices, 1)
	assert.Equal(t, document.MsgUnsupported, report.Notices[0].Message)
	assert.Equal(t, 1, gw.chat)
	assert.Zero(t, gw.ocr)
}

func TestExtractAPIDefaultsToFirstModel(t *testing.T) {
	h, gw, _ := newTestRouter(t, 1<<20)

	body, ct := multipartBody(t, "", part{"a.jpeg", pngFile(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeReport(t, rec)
	assert.Equal(t, "mistral-ocr-latest", report.Model)
	assert.Equal(t, 1, gw.ocr)
}

func TestExtractAPIWithoutFilesWarns(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	body, ct := multipartBody(t, "mistral-small-latest")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeReport(t, rec)
	assert.Empty(t, report.Results)
	require.Len(t, report.Notices, 1)
	assert.Equal(t, models.NoticeWarning, report.Notices[0].Level)
	assert.Equal(t, document.MsgNoFile, report.Notices[0].Message)
}

func TestExtractAPIRejectsUnknownModel(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	body, ct := multipartBody(t, "gpt-9", part{"a.png", pngFile(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown model")
}

func TestExtractAPIRejectsOversizedUpload(t *testing.T) {
	h, gw, _ := newTestRouter(t, 512)

	body, ct := multipartBody(t, "", part{"big.png", bytes.Repeat([]byte("x"), 4096)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, gw.ocr)
}

func TestModelsEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Models  []llm.Model `json:"models"`
		Default string      `json:"default"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Models, 3)
	assert.Equal(t, "mistral-ocr-latest", body.Default)
	assert.Equal(t, "pixtral-12b-2409", body.Models[1].ID)
}

func TestSubmissionEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	body, ct := multipartBody(t, "", part{"a.png", pngFile(t)}, part{"b.doc", []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	report := decodeReport(t, rec)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+report.SubmissionID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Events []models.ExtractionEvent `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Events, 2)
	assert.Equal(t, models.EventStatusOK, got.Events[0].Status)
	assert.Equal(t, models.EventStatusUnsupported, got.Events[1].Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissionEndpointWithNopRecorder(t *testing.T) {
	gw := &stubGateway{catalog: llm.NewCatalog(llm.MistralModels, "")}
	svc := document.NewService(multimodal.NewVisionService(gw, ""))
	eh := NewExtractHandler(svc, gw.catalog, audit.Nop{}, 1<<20)

	r := chi.NewRouter()
	r.Get("/api/v1/submissions/{id}", eh.Submission)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormIndex(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
}

func TestFormSubmitRendersResults(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	body, ct := multipartBody(t, "mistral-ocr-latest", part{"scan.png", pngFile(t)})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "Extracted Text from scan.png")
	assert.Contains(t, out, "ocr text")
}

func TestFormSubmitWithoutFiles(t *testing.T) {
	h, _, _ := newTestRouter(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("model=pixtral+12B"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, document.MsgNoFile)
	assert.Contains(t, out, `value="pixtral 12B" checked`)
}

func TestReadyz(t *testing.T) {
	h := NewHealthHandlerWithChecks(map[string]Check{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy: connection refused")

	h = NewHealthHandler(nil, nil)
	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
