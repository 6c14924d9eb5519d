package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docvision/internal/audit"
	"github.com/nikhilbhutani/docvision/internal/cache"
	"github.com/nikhilbhutani/docvision/internal/llm"
	"github.com/nikhilbhutani/docvision/internal/models"
	"github.com/nikhilbhutani/docvision/internal/multimodal"
)

const (
	MsgNoFile      = "Please upload a file."
	MsgUnsupported = "Unsupported file type"
)

var errUnsupported = errors.New("unsupported file type")

// StageError is a per-file failure shown to the user as "<Stage> Error: <err>".
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Message() string { return fmt.Sprintf("%s Error: %v", e.Stage, e.Err) }

// Service turns uploaded files into extracted text, one file at a time.
type Service struct {
	vision *multimodal.VisionService
	pdf    PDFExtractor
	cache  cache.TextCache
	audit  audit.Recorder

	maxPixels int
}

type Option func(*Service)

func WithPDFExtractor(p PDFExtractor) Option {
	return func(s *Service) { s.pdf = p }
}

func WithCache(c cache.TextCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithRecorder(r audit.Recorder) Option {
	return func(s *Service) { s.audit = r }
}

// WithMaxPixels caps width*height of uploaded images.
// WithMaxPixels caps decoded image size. Non-positive values keep the default.
func WithMaxPixels(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPixels = n
		}
	}
}

func NewService(vision *multimodal.VisionService, opts ...Option) *Service {
	s := &Service{
		vision: vision,
		pdf:    NewPDFExtractor(),
		cache:  cache.Nop{},
		audit:  audit.Nop{},

		maxPixels: multimodal.DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs every file through Dispatch in upload order. A failed file
// adds an error notice and is skipped; the rest are still processed.
func (s *Service) Process(ctx context.Context, files []models.UploadedFile, model llm.Model) *models.Report {
	report := &models.Report{
		SubmissionID: uuid.New(),
		Model:        model.Label,
		Results:      []models.ExtractionResult{},
		Notices:      []models.Notice{},
	}

	if len(files) == 0 {
		report.Warn(MsgNoFile)
		return report
	}

	for _, f := range files {
		res, err := s.Dispatch(ctx, f, model)
		s.record(ctx, report.SubmissionID, f, model, res, err)
		if err != nil {
			report.Fail(f.Name, noticeMessage(err))
			slog.Warn("file extraction failed",
				"submission_id", report.SubmissionID,
				"file", f.Name,
				"model", model.ID,
				"error", err,
			)
			continue
		}
		report.Add(*res)
	}

	slog.Info("submission processed",
		"submission_id", report.SubmissionID,
		"model", model.ID,
		"files", len(files),
		"results", len(report.Results),
		"errors", len(report.Errors()),
	)
	return report
}

// Dispatch routes one file by its extension and the model's capability.
func (s *Service) Dispatch(ctx context.Context, f models.UploadedFile, model llm.Model) (*models.ExtractionResult, error) {
	start := time.Now()

	var (
		res *models.ExtractionResult
		err error
	)
	switch {
	case f.Kind.IsPDF():
		res, err = s.extractFromPDF(ctx, f)
	case f.Kind.IsImage():
		res, err = s.extractFromImage(ctx, f, model)
	default:
		return nil, errUnsupported
	}
	if err != nil {
		return nil, err
	}

	res.SourceFileName = f.Name
	res.DurationMs = time.Since(start).Milliseconds()
	return res, nil
}

func (s *Service) extractFromPDF(ctx context.Context, f models.UploadedFile) (*models.ExtractionResult, error) {
	out, err := s.pdf.ExtractPDF(ctx, f.Bytes)
	if err != nil {
		return nil, &StageError{Stage: "PDF", Err: err}
	}
	return &models.ExtractionResult{
		Text:  out.Content,
		Route: models.RoutePDF,
		Pages: out.Pages,
	}, nil
}

func (s *Service) extractFromImage(ctx context.Context, f models.UploadedFile, model llm.Model) (*models.ExtractionResult, error) {
	jpg, err := multimodal.EncodeJPEG(f.Bytes, s.maxPixels)
	if err != nil {
		return nil, &StageError{Stage: "Image", Err: err}
	}

	route, stage := models.RouteChat, "Chat"
	if model.IsOCR() {
		route, stage = models.RouteOCR, "OCR"
	}

	res := &models.ExtractionResult{Route: route, Model: model.ID}
	key := cache.Key(string(route), model.ID, jpg)
	if route == models.RouteChat {
		key = cache.Key(string(route), model.ID, jpg, []byte(s.vision.Prompt()))
	}
	if text, ok := s.cache.GetText(ctx, key); ok {
		res.Text = text
		res.Cached = true
		return res, nil
	}

	img := multimodal.ImageFromJPEG(jpg)
	var text string
	if route == models.RouteOCR {
		text, err = s.vision.ExtractViaOCR(ctx, img, model)
	} else {
		text, err = s.vision.ExtractViaChat(ctx, img, model)
	}
	if err != nil {
		return nil, &StageError{Stage: stage, Err: err}
	}

	s.cache.SetText(ctx, key, text)
	res.Text = text
	return res, nil
}

func (s *Service) record(ctx context.Context, submissionID uuid.UUID, f models.UploadedFile, model llm.Model, res *models.ExtractionResult, err error) {
	ev := models.ExtractionEvent{
		SubmissionID: submissionID,
		FileName:     f.Name,
		FileKind:     string(f.Kind),
		FileSize:     int64(len(f.Bytes)),
		Model:        model.ID,
		Status:       models.EventStatusOK,
	}
	switch {
	case errors.Is(err, errUnsupported):
		ev.Status = models.EventStatusUnsupported
		ev.Error = MsgUnsupported
	case err != nil:
		ev.Status = models.EventStatusFailed
		ev.Error = noticeMessage(err)
	default:
		ev.Route = string(res.Route)
		ev.TextLength = len(res.Text)
		ev.Cached = res.Cached
		ev.LatencyMs = res.DurationMs
	}

	if err := s.audit.Record(ctx, ev); err != nil {
		slog.Error("failed to record extraction event", "submission_id", submissionID, "file", f.Name, "error", err)
	}
}

func noticeMessage(err error) string {
	if errors.Is(err, errUnsupported) {
		return MsgUnsupported
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}
