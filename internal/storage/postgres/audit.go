package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the slice of pgxpool.Pool the audit writer needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditRecord is one row of form_submissions.
type AuditRecord struct {
	SubmissionID string
	Kind         string
	Email        string
	Referer      string
	Payload      any
	CreatedAt    time.Time
}

type AuditWriter struct {
	db execer
}

func NewAuditWriter(db *DB) *AuditWriter { return &AuditWriter{db: db.Pool} }

const insertSubmission = `INSERT INTO form_submissions
  (submission_id, kind, email, referer, payload, created_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)
ON CONFLICT (submission_id) DO NOTHING`

// Record inserts rec; a duplicate submission id is ignored and reports inserted=false.
func (w *AuditWriter) Record(ctx context.Context, rec AuditRecord) (bool, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal audit payload: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// optionals
	var email, referer any
	if rec.Email != "" {
		email = rec.Email
	}
	if rec.Referer != "" {
		referer = rec.Referer
	}

	ct, err := w.db.Exec(ctx, insertSubmission,
		rec.SubmissionID, rec.Kind, email, referer, string(payload), createdAt)
	if err != nil {
		return false, fmt.Errorf("insert submission: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
