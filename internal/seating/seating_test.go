package seating

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-seat-api/internal/models"
)

func students(ids ...string) []models.Student {
	out := make([]models.Student, len(ids))
	for i, id := range ids {
		out[i] = models.Student{StudentID: id, Name: "Student " + id}
	}
	return out
}

func identifiers(chart models.SeatChart) map[int]string {
	out := make(map[int]string, len(chart))
	for seat, a := range chart {
		out[seat] = a.Student.StudentID
	}
	return out
}

func TestPreferredSeat(t *testing.T) {
	cases := []struct {
		name       string
		identifier string
		total      int
		seat       int
		ok         bool
	}{
		{"suffix of last run", "LUCK25001", 5, 1, true},
		{"short run", "A7", 10, 7, true},
		{"last run wins", "12AB034", 50, 34, true},
		{"wraps down", "X010", 3, 1, true},
		{"wraps far beyond capacity", "X999", 7, 5, true},
		{"exact multiple maps to last seat", "X003", 3, 3, true},
		{"double multiple maps to last seat", "X006", 3, 3, true},
		{"zero suffix", "LUCK25000", 5, 0, false},
		{"no digits", "LIBRARY", 5, 0, false},
		{"empty", "", 5, 0, false},
		{"no capacity", "LUCK25001", 0, 0, false},
		{"negative capacity", "LUCK25001", -4, 0, false},
		{"non ascii digits ignored", "ID٣", 5, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seat, ok := PreferredSeat(tc.identifier, tc.total)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.seat, seat)
		})
	}
}

func TestPreferredSeatNeverZero(t *testing.T) {
	// Regression guard for the exact-multiple edge: the wrapped value is always in range.
	for total := 1; total <= 40; total++ {
		for suffix := 1; suffix <= 999; suffix++ {
			id := "S" + padded(suffix)
			seat, ok := PreferredSeat(id, total)
			require.True(t, ok, id)
			require.GreaterOrEqual(t, seat, 1, id)
			require.LessOrEqual(t, seat, total, id)
			require.Equal(t, loopWrap(suffix, total), seat, id)
		}
	}
}

func TestAssignAllExactMultipleKeepsLastSeat(t *testing.T) {
	// X003 wraps onto seat 3 and Y001 keeps seat 1. If an exact multiple were read as
	// "no preference", X003 would probe from seat 1 and push Y001 to seat 2.
	chart := AssignAll(students("Y001", "X003"), 3)

	assert.Equal(t, map[int]string{1: "Y001", 3: "X003"}, identifiers(chart))
	assert.NotEqual(t, map[int]string{1: "X003", 2: "Y001"}, identifiers(chart))
	assert.Equal(t, []int{2}, FreeSeats(chart, 3))

	seat, ok := PreferredSeat("X006", 3)
	require.True(t, ok)
	assert.Equal(t, 3, seat)
}

func loopWrap(preferred, total int) int {
	for preferred > total {
		preferred -= total
	}
	return preferred
}

func padded(n int) string {
	s := []byte{'0', '0', '0'}
	for i := 2; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}

func TestAssignAllSequentialIdentifiers(t *testing.T) {
	chart := AssignAll(students("LUCK25003", "LUCK25001", "LUCK25002"), 5)

	assert.Equal(t, map[int]string{1: "LUCK25001", 2: "LUCK25002", 3: "LUCK25003"}, identifiers(chart))
	assert.Equal(t, []int{4, 5}, FreeSeats(chart, 5))
	for _, a := range chart {
		assert.Equal(t, models.AssignmentStatusDerived, a.Status)
	}
}

func TestAssignAllCollisionProbesForward(t *testing.T) {
	chart := AssignAll(students("B001", "A001"), 3)
	assert.Equal(t, map[int]string{1: "A001", 2: "B001"}, identifiers(chart))
}

func TestAssignAllProbeWrapsAround(t *testing.T) {
	// C003 and D003 both prefer seat 3; D003 wraps to seat 1.
	chart := AssignAll(students("C003", "D003"), 3)
	assert.Equal(t, map[int]string{3: "C003", 1: "D003"}, identifiers(chart))
}

func TestAssignAllOverCapacity(t *testing.T) {
	chart := AssignAll(students("X010", "X007", "X004", "X001"), 3)

	assert.Equal(t, map[int]string{1: "X001", 2: "X004", 3: "X007"}, identifiers(chart))
	_, seated := chart.SeatOf("X010")
	assert.False(t, seated)
}

func TestAssignAllWithoutDigitsStartsAtSeatOne(t *testing.T) {
	chart := AssignAll(students("ALPHA", "A002"), 4)
	assert.Equal(t, map[int]string{2: "A002", 1: "ALPHA"}, identifiers(chart))
}

func TestAssignAllSkipsMissingIdentifier(t *testing.T) {
	chart := AssignAll([]models.Student{{Name: "No ID"}, {StudentID: "A001"}}, 3)
	assert.Len(t, chart, 1)
}

func TestAssignAllDuplicateIdentifiers(t *testing.T) {
	in := []models.Student{{StudentID: "A001", Name: "first"}, {StudentID: "A001", Name: "second"}}
	chart := AssignAll(in, 3)

	require.Len(t, chart, 2)
	assert.Equal(t, "first", chart[1].Student.Name)
	assert.Equal(t, "second", chart[2].Student.Name)
}

func TestAssignAllNoCapacity(t *testing.T) {
	assert.Empty(t, AssignAll(students("A001", "B002"), 0))
	assert.Empty(t, AssignAll(students("A001", "B002"), -1))
	assert.Empty(t, AssignAll(nil, 10))
}

func TestAssignAllIsOrderIndependentAndCollisionFree(t *testing.T) {
	ids := []string{"LUCK25001", "LUCK25011", "LUCK24001", "NOID", "Z", "M104", "M204", "Q999", "lower7", "UP7"}
	base := identifiers(AssignAll(students(ids...), 8))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]string(nil), ids...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		chart := AssignAll(students(shuffled...), 8)

		assert.Equal(t, base, identifiers(chart))
		seen := map[string]bool{}
		for seat, a := range chart {
			assert.Equal(t, seat, a.SeatNumber)
			assert.GreaterOrEqual(t, seat, 1)
			assert.LessOrEqual(t, seat, 8)
			assert.False(t, seen[a.Student.StudentID])
			seen[a.Student.StudentID] = true
		}
	}
}

func TestProbe(t *testing.T) {
	taken := NewOccupancy(2, 3)

	seat, ok := Probe(2, 4, taken)
	assert.True(t, ok)
	assert.Equal(t, 4, seat)

	seat, ok = Probe(0, 4, taken)
	assert.True(t, ok)
	assert.Equal(t, 1, seat)

	_, ok = Probe(1, 3, NewOccupancy(1, 2, 3))
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	seat, ok := Resolve("LUCK25002", 5, NewOccupancy())
	assert.True(t, ok)
	assert.Equal(t, 2, seat)

	seat, ok = Resolve("LUCK25002", 5, NewOccupancy(2))
	assert.True(t, ok)
	assert.Equal(t, 3, seat)

	seat, ok = Resolve("GUEST", 5, NewOccupancy(1))
	assert.True(t, ok)
	assert.Equal(t, 2, seat)
}

func TestFromChartExcludesStudents(t *testing.T) {
	chart := AssignAll(students("A001", "B002", "C003"), 5)
	taken := FromChart(chart, map[string]struct{}{"B002": {}})
	assert.Equal(t, []int{1, 3}, taken.Sorted())
}

func TestOccupancyClone(t *testing.T) {
	o := NewOccupancy(1)
	c := o.Clone()
	c.Take(2)
	o.Release(1)

	assert.False(t, o.Has(1))
	assert.False(t, o.Has(2))
	assert.Equal(t, []int{1, 2}, c.Sorted())
}
