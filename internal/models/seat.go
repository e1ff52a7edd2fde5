package models

import "sort"

// AssignmentStatus describes where a seat assignment came from.
type AssignmentStatus string

// AssignmentStatusDerived marks assignments computed from the student list, never persisted.
const AssignmentStatusDerived AssignmentStatus = "derived"

// SeatAssignment places one student on one seat.
type SeatAssignment struct {
	SeatNumber int              `json:"seat_number"`
	Student    Student          `json:"student"`
	Status     AssignmentStatus `json:"status"`
}

// SeatChart maps seat numbers to at most one assignment each.
type SeatChart map[int]SeatAssignment

// Seats returns the occupied seat numbers in ascending order.
func (c SeatChart) Seats() []int {
	seats := make([]int, 0, len(c))
	for seat := range c {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	return seats
}

// SeatOf returns the seat held by the student, if any.
func (c SeatChart) SeatOf(studentID string) (int, bool) {
	for seat, a := range c {
		if a.Student.StudentID == studentID {
			return seat, true
		}
	}
	return 0, false
}

// SeatChartView is the chart as served to the dashboard.
type SeatChartView struct {
	TotalSeats  int              `json:"total_seats"`
	Occupied    int              `json:"occupied"`
	Assignments []SeatAssignment `json:"assignments"`
	FreeSeats   []int            `json:"free_seats"`
	Unassigned  []Student        `json:"unassigned"`
}

// PreferredSeat previews the seat derived from a student identifier.
type PreferredSeat struct {
	StudentID  string `json:"student_id"`
	TotalSeats int    `json:"total_seats"`
	SeatNumber *int   `json:"seat_number"`
}
