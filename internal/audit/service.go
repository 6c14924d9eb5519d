package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/docvision/internal/models"
)

// Recorder persists per-file extraction outcomes.
type Recorder interface {
	Record(ctx context.Context, ev models.ExtractionEvent) error
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]models.ExtractionEvent, error)
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Record(ctx context.Context, ev models.ExtractionEvent) error {
	ev = Prepare(ev, time.Now())

	_, err := s.db.Exec(ctx,
		`INSERT INTO extraction_events (id, submission_id, file_name, file_kind, file_size, model, route, status, error, text_length, cached, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		ev.ID, ev.SubmissionID, ev.FileName, ev.FileKind, ev.FileSize, ev.Model, ev.Route,
		ev.Status, ev.Error, ev.TextLength, ev.Cached, ev.LatencyMs, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction event: %w", err)
	}
	return nil
}

func (s *Service) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]models.ExtractionEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, submission_id, file_name, file_kind, file_size, model, route, status, error, text_length, cached, latency_ms, created_at
		 FROM extraction_events WHERE submission_id = $1 ORDER BY created_at, id`,
		submissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query extraction events: %w", err)
	}

	events, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ExtractionEvent])
	if err != nil {
		return nil, fmt.Errorf("scan extraction events: %w", err)
	}
	return events, nil
}

// Prepare fills the generated fields of an event before it is stored.
func Prepare(ev models.ExtractionEvent, now time.Time) models.ExtractionEvent {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now.UTC()
	}
	return ev
}

// Nop discards events. Used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, models.ExtractionEvent) error { return nil }

func (Nop) ListBySubmission(context.Context, uuid.UUID) ([]models.ExtractionEvent, error) {
	return nil, nil
}
