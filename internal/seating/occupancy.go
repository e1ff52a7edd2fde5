package seating

import (
	"sort"

	"github.com/noah-isme/library-seat-api/internal/models"
)

// Occupancy is a set of taken seat numbers. The zero value is not usable; use NewOccupancy.
type Occupancy map[int]struct{}

// NewOccupancy returns a set pre-filled with seats.
func NewOccupancy(seats ...int) Occupancy {
	o := make(Occupancy, len(seats))
	for _, s := range seats {
		o.Take(s)
	}
	return o
}

// Has reports whether seat is taken. Safe on a nil set.
func (o Occupancy) Has(seat int) bool {
	_, ok := o[seat]
	return ok
}

// Take marks seat as taken.
func (o Occupancy) Take(seat int) {
	o[seat] = struct{}{}
}

// Release frees seat.
func (o Occupancy) Release(seat int) {
	delete(o, seat)
}

// Clone returns an independent copy.
func (o Occupancy) Clone() Occupancy {
	c := make(Occupancy, len(o))
	for s := range o {
		c[s] = struct{}{}
	}
	return c
}

// Sorted returns the taken seats in ascending order.
func (o Occupancy) Sorted() []int {
	seats := make([]int, 0, len(o))
	for s := range o {
		seats = append(seats, s)
	}
	sort.Ints(seats)
	return seats
}

// FromChart collects the seats of chart, skipping students listed in exclude.
func FromChart(chart models.SeatChart, exclude map[string]struct{}) Occupancy {
	o := make(Occupancy, len(chart))
	for seat, a := range chart {
		if _, skip := exclude[a.Student.StudentID]; skip {
			continue
		}
		o.Take(seat)
	}
	return o
}
