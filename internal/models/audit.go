package models

import "time"

// Audit actions recorded for booking decisions.
const (
	AuditActionApprove    = "APPROVE"
	AuditActionReject     = "REJECT"
	AuditActionBulkAssign = "BULK_ASSIGN"
)

// Audit outcomes.
const (
	AuditOutcomeSucceeded = "SUCCEEDED"
	AuditOutcomeFailed    = "FAILED"
)

// AssignmentAudit records one persistence attempt against the backend.
type AssignmentAudit struct {
	ID         string        `db:"id" json:"id"`
	BookingID  string        `db:"booking_id" json:"booking_id"`
	StudentID  string        `db:"student_id" json:"student_id"`
	Action     string        `db:"action" json:"action"`
	Status     BookingStatus `db:"status" json:"status"`
	SeatNumber *int          `db:"seat_number" json:"seat_number,omitempty"`
	Outcome    string        `db:"outcome" json:"outcome"`
	Error      *string       `db:"error" json:"error,omitempty"`
	Note       *string       `db:"note" json:"note,omitempty"`
	ActorID    *string       `db:"actor_id" json:"actor_id,omitempty"`
	Scope      string        `db:"scope" json:"scope"`
	RequestID  string        `db:"request_id" json:"request_id"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// AuditFilter scopes audit listings. Scope is always applied, so callers only see
// decisions made within their own library.
type AuditFilter struct {
	Scope     string
	BookingID string
	Limit     int
}
