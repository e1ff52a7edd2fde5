package dto

import "github.com/noah-isme/library-seat-api/internal/models"

// ApproveBookingRequest optionally carries an operator-chosen seat.
type ApproveBookingRequest struct {
	SeatNumber *int `json:"seat_number,omitempty" validate:"omitempty,min=1"`
}

// RejectBookingRequest carries an optional operator note kept in the audit trail.
type RejectBookingRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// BulkAssignRequest limits a bulk run to specific bookings. Empty means every eligible booking.
type BulkAssignRequest struct {
	BookingIDs []string `json:"booking_ids,omitempty" validate:"omitempty,dive,required"`
}

// BookingListFilter filters booking listings.
type BookingListFilter struct {
	Status string `validate:"omitempty,oneof=pending approved rejected"`
}

// ApprovalOutcome reports the result of a single approval or rejection.
type ApprovalOutcome struct {
	BookingID  string               `json:"booking_id"`
	StudentID  string               `json:"student_id"`
	Status     models.BookingStatus `json:"status"`
	SeatNumber *int                 `json:"seat_number,omitempty"`
	Manual     bool                 `json:"manual"`
}

// BulkItemStatus is the per-booking result of a bulk run.
type BulkItemStatus string

const (
	BulkItemSucceeded  BulkItemStatus = "succeeded"
	BulkItemFailed     BulkItemStatus = "failed"
	BulkItemUnassigned BulkItemStatus = "unassigned"
)

// BulkItemResult describes what happened to one booking in a bulk run.
type BulkItemResult struct {
	BookingID  string         `json:"booking_id"`
	StudentID  string         `json:"student_id"`
	SeatNumber *int           `json:"seat_number,omitempty"`
	Result     BulkItemStatus `json:"result"`
	Error      string         `json:"error,omitempty"`
}

// BulkAssignResult aggregates a bulk run for the operator.
type BulkAssignResult struct {
	Processed  int              `json:"processed"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Unassigned int              `json:"unassigned"`
	Items      []BulkItemResult `json:"items"`
}

// Add records one item and updates the counters.
func (r *BulkAssignResult) Add(item BulkItemResult) {
	r.Processed++
	switch item.Result {
	case BulkItemSucceeded:
		r.Succeeded++
	case BulkItemFailed:
		r.Failed++
	case BulkItemUnassigned:
		r.Unassigned++
	}
	r.Items = append(r.Items, item)
}
