package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/library-seat-api/internal/models"
)

const auditSchema = `CREATE TABLE IF NOT EXISTS assignment_audits (
    id UUID PRIMARY KEY,
    booking_id TEXT NOT NULL,
    student_id TEXT NOT NULL,
    action TEXT NOT NULL,
    status TEXT NOT NULL,
    seat_number INTEGER,
    outcome TEXT NOT NULL,
    error TEXT,
    note TEXT,
    actor_id TEXT,
    request_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE assignment_audits ADD COLUMN IF NOT EXISTS scope TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS assignment_audits_booking_idx ON assignment_audits (booking_id, created_at DESC);
CREATE INDEX IF NOT EXISTS assignment_audits_scope_idx ON assignment_audits (scope, created_at DESC)`

// AuditRepository persists the assignment audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the audit table when missing.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Create inserts an audit row.
func (r *AuditRepository) Create(ctx context.Context, audit *models.AssignmentAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignment_audits (id, booking_id, student_id, action, status, seat_number, outcome, error, note, actor_id, scope, request_id, created_at)
        VALUES (:id, :booking_id, :student_id, :action, :status, :seat_number, :outcome, :error, :note, :actor_id, :scope, :request_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		return fmt.Errorf("create assignment audit: %w", err)
	}
	return nil
}

// List returns the audit rows of filter.Scope newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AssignmentAudit, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, booking_id, student_id, action, status, seat_number, outcome, error, note, actor_id, scope, request_id, created_at FROM assignment_audits WHERE scope = $1`
	args := []interface{}{filter.Scope}
	if filter.BookingID != "" {
		query += " AND booking_id = $2"
		args = append(args, filter.BookingID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	var audits []models.AssignmentAudit
	if err := r.db.SelectContext(ctx, &audits, query, args...); err != nil {
		return nil, fmt.Errorf("list assignment audits: %w", err)
	}
	return audits, nil
}
