package models

import "time"

// SeatAssignedEvent is published after a booking is approved into a seat.
type SeatAssignedEvent struct {
	EventID    string    `json:"event_id"`
	BookingID  string    `json:"booking_id"`
	StudentID  string    `json:"student_id"`
	SeatNumber int       `json:"seat_number"`
	Action     string    `json:"action"`
	ApprovedBy string    `json:"approved_by,omitempty"`
	Scope      string    `json:"scope,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}
