package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// BookingStatus is the admin decision on a seat booking.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusApproved BookingStatus = "approved"
	BookingStatusRejected BookingStatus = "rejected"
)

// PaymentStatus mirrors the backend payment flag on a booking.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// BookingID accepts both numeric and string identifiers from the backend.
type BookingID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *BookingID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = BookingID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("booking id: %w", err)
	}
	*id = BookingID(n.String())
	return nil
}

// Booking is a seat booking owned by the backend.
type Booking struct {
	ID                 BookingID     `json:"id"`
	StudentID          string        `json:"student_id"`
	StudentName        string        `json:"student_name,omitempty"`
	Status             BookingStatus `json:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	SeatNumber         *int          `json:"seat_number,omitempty"`
	Amount             float64       `json:"amount"`
	SubscriptionMonths int           `json:"subscription_months"`
	CreatedAt          time.Time     `json:"created_at"`
}

// HasSeat reports whether a seat has been committed on the booking.
func (b Booking) HasSeat() bool {
	return b.SeatNumber != nil && *b.SeatNumber > 0
}

// NeedsSeat reports whether the booking is eligible for seat assignment.
func (b Booking) NeedsSeat() bool {
	switch b.Status {
	case BookingStatusPending:
		return true
	case BookingStatusApproved:
		return !b.HasSeat()
	default:
		return false
	}
}

// BookingUpdate is the body of PUT /booking/seat-bookings/{id}.
type BookingUpdate struct {
	Status     BookingStatus `json:"status"`
	SeatNumber *int          `json:"seat_number,omitempty"`
}
