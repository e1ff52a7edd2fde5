// Package seating derives seat numbers from student identifiers.
//
// A student's preferred seat is the last three digits of the last digit run in
// their identifier, wrapped into the library capacity. Collisions are resolved
// by linear probing with wraparound. Everything here is pure: the chart is
// rebuilt from the full student list on every call and never patched.
package seating

import (
	"sort"
	"strconv"

	"github.com/noah-isme/library-seat-api/internal/models"
)

const suffixDigits = 3

// PreferredSeat returns the seat derived from identifier for a library of
// totalSeats seats. The second result is false when the identifier carries no
// usable digits or the library has no seats.
//
// Suffixes that are exact multiples of totalSeats map to the last seat.
func PreferredSeat(identifier string, totalSeats int) (int, bool) {
	if totalSeats <= 0 {
		return 0, false
	}
	run := lastDigitRun(identifier)
	if run == "" {
		return 0, false
	}
	if len(run) > suffixDigits {
		run = run[len(run)-suffixDigits:]
	}
	preferred, err := strconv.ParseUint(run, 10, 32)
	if err != nil || preferred == 0 {
		return 0, false
	}
	return wrap(int(preferred), totalSeats), true
}

// wrap is the closed form of repeatedly subtracting totalSeats while preferred exceeds it.
func wrap(preferred, totalSeats int) int {
	return (preferred-1)%totalSeats + 1
}

func lastDigitRun(s string) string {
	end := -1
	for i := len(s) - 1; i >= 0; i-- {
		if isDigit(s[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return ""
	}
	start := end
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	return s[start : end+1]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Probe scans totalSeats candidates cyclically from start and returns the first free one.
func Probe(start, totalSeats int, taken Occupancy) (int, bool) {
	if totalSeats <= 0 {
		return 0, false
	}
	if start < 1 || start > totalSeats {
		start = 1
	}
	for i := 0; i < totalSeats; i++ {
		candidate := (start-1+i)%totalSeats + 1
		if !taken.Has(candidate) {
			return candidate, true
		}
	}
	return 0, false
}

// Resolve picks the preferred seat when free, otherwise probes from it (or from seat 1).
func Resolve(identifier string, totalSeats int, taken Occupancy) (int, bool) {
	preferred, ok := PreferredSeat(identifier, totalSeats)
	if ok && !taken.Has(preferred) {
		return preferred, true
	}
	start := 1
	if ok {
		start = preferred
	}
	return Probe(start, totalSeats, taken)
}

// AssignAll builds the derived chart. Students are ordered by identifier so the
// result does not depend on input order; students without an identifier and
// students beyond capacity receive no seat.
func AssignAll(students []models.Student, totalSeats int) models.SeatChart {
	chart := make(models.SeatChart)
	if totalSeats <= 0 {
		return chart
	}

	ordered := make([]models.Student, 0, len(students))
	for _, s := range students {
		if s.StudentID != "" {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StudentID < ordered[j].StudentID
	})

	taken := NewOccupancy()
	for _, student := range ordered {
		seat, ok := Resolve(student.StudentID, totalSeats, taken)
		if !ok {
			continue
		}
		taken.Take(seat)
		chart[seat] = models.SeatAssignment{
			SeatNumber: seat,
			Student:    student,
			Status:     models.AssignmentStatusDerived,
		}
	}
	return chart
}

// FreeSeats lists seats in [1, totalSeats] not present in chart.
func FreeSeats(chart models.SeatChart, totalSeats int) []int {
	free := make([]int, 0)
	for seat := 1; seat <= totalSeats; seat++ {
		if _, ok := chart[seat]; !ok {
			free = append(free, seat)
		}
	}
	return free
}
