package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventStatusOK          = "ok"
	EventStatusFailed      = "failed"
	EventStatusUnsupported = "unsupported"
)

// ExtractionEvent records the outcome of one file. It never holds file
// contents or extracted text.
type ExtractionEvent struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SubmissionID uuid.UUID `json:"submission_id" db:"submission_id"`
	FileName     string    `json:"file_name" db:"file_name"`
	FileKind     string    `json:"file_kind" db:"file_kind"`
	FileSize     int64     `json:"file_size_bytes" db:"file_size"`
	Model        string    `json:"model" db:"model"`
	Route        string    `json:"route,omitempty" db:"route"`
	Status       string    `json:"status" db:"status"`
	Error        string    `json:"error,omitempty" db:"error"`
	TextLength   int       `json:"text_length" db:"text_length"`
	Cached       bool      `json:"cached" db:"cached"`
	LatencyMs    int64     `json:"latency_ms" db:"latency_ms"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
