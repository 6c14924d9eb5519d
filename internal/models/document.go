package models

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileKind is the normalized extension of an uploaded file.
type FileKind string

const (
	KindPDF  FileKind = "pdf"
	KindJPG  FileKind = "jpg"
	KindJPEG FileKind = "jpeg"
	KindPNG  FileKind = "png"
)

// KindFromName returns the lower-cased extension of name without the dot.
// The result is not guaranteed to be a supported kind.
func KindFromName(name string) FileKind {
	return FileKind(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
}

func (k FileKind) IsImage() bool {
	return k == KindJPG || k == KindJPEG || k == KindPNG
}

func (k FileKind) IsPDF() bool { return k == KindPDF }

func (k FileKind) Supported() bool { return k.IsImage() || k.IsPDF() }

// UploadedFile lives only for the duration of one submission.
type UploadedFile struct {
	Name  string
	Kind  FileKind
	Bytes []byte
}

func NewUploadedFile(name string, data []byte) UploadedFile {
	return UploadedFile{Name: name, Kind: KindFromName(name), Bytes: data}
}

type Route string

const (
	RouteOCR  Route = "ocr"
	RouteChat Route = "chat"
	RoutePDF  Route = "pdf"
)

type ExtractionResult struct {
	SourceFileName string `json:"source_file_name"`
	Text           string `json:"text"`
	Route          Route  `json:"route"`
	Model          string `json:"model,omitempty"`
	Pages          int    `json:"pages,omitempty"`
	Cached         bool   `json:"cached,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}

type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible banner attached to a submission.
type Notice struct {
	Level    NoticeLevel `json:"level"`
	FileName string      `json:"file_name,omitempty"`
	Message  string      `json:"message"`
}

// Outcome is either a notice or a result, kept so a page can show each
// file's banner or text in the order the files were uploaded.
type Outcome struct {
	Notice *Notice
	Result *ExtractionResult
}

// Report is everything one submission produced, in upload order.
type Report struct {
	SubmissionID uuid.UUID          `json:"submission_id"`
	Model        string             `json:"model"`
	RequestedBy  string             `json:"requested_by,omitempty"`
	Results      []ExtractionResult `json:"results"`
	Notices      []Notice           `json:"notices"`
	Outcomes     []Outcome          `json:"-"`
}

func (r *Report) Add(res ExtractionResult) {
	r.Results = append(r.Results, res)
	r.Outcomes = append(r.Outcomes, Outcome{Result: &res})
}

func (r *Report) Warn(msg string) {
	r.notify(Notice{Level: NoticeWarning, Message: msg})
}

func (r *Report) Fail(fileName, msg string) {
	r.notify(Notice{Level: NoticeError, FileName: fileName, Message: msg})
}

func (r *Report) notify(n Notice) {
	r.Notices = append(r.Notices, n)
	r.Outcomes = append(r.Outcomes, Outcome{Notice: &n})
}

func (r *Report) Errors() []Notice {
	var out []Notice
	for _, n := range r.Notices {
		if n.Level == NoticeError {
			out = append(out, n)
		}
	}
	return out
}
