package models

// LibraryStats is the /admin/stats payload. TotalSeats is the library capacity.
type LibraryStats struct {
	TotalSeats      int `json:"total_seats"`
	TotalStudents   int `json:"total_students"`
	PresentStudents int `json:"present_students"`
	AvailableSeats  int `json:"available_seats"`
	PendingBookings int `json:"pending_bookings"`
}
