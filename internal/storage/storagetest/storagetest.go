// Package storagetest holds the behavioural contract every storage.Provider
// must satisfy. Backend packages call Run from their own tests so the
// in-memory and SQL stores are held to exactly the same expectations.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/carrot/internal/errors"
	"github.com/julianstephens/carrot/internal/models"
	"github.com/julianstephens/carrot/internal/storage"
)

// OpenFunc returns a fresh, empty store. It is called once per subtest and
// should register its own cleanup.
type OpenFunc func(t *testing.T) storage.Provider

// Run executes the full storage contract against stores produced by open.
func Run(t *testing.T, open OpenFunc) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Provider)
	}{
		{"CreateTrackableRoundTrip", testCreateTrackableRoundTrip},
		{"CreateTrackableAssignsFreshIDs", testCreateTrackableAssignsFreshIDs},
		{"GetAllTrackablesEmpty", testGetAllTrackablesEmpty},
		{"GetAllTrackablesOrdering", testGetAllTrackablesOrdering},
		{"UpdateTrackable", testUpdateTrackable},
		{"UpdateTrackableNotFound", testUpdateTrackableNotFound},
		{"UpdateTrackableOrders", testUpdateTrackableOrders},
		{"UpdateTrackableOrdersIsAllOrNothing", testUpdateTrackableOrdersIsAllOrNothing},
		{"DeleteTrackableCascadesCounts", testDeleteTrackableCascadesCounts},
		{"DeleteTrackableNotFound", testDeleteTrackableNotFound},
		{"GetCountAbsent", testGetCountAbsent},
		{"IncrementCount", testIncrementCount},
		{"DecrementCountClampsAtZero", testDecrementCountClampsAtZero},
		{"IncrementDecrementInterleaved", testIncrementDecrementInterleaved},
		{"SetCountRoundTrip", testSetCountRoundTrip},
		{"SetCountDoesNotClamp", testSetCountDoesNotClamp},
		{"CountUniquenessPerDay", testCountUniquenessPerDay},
		{"GetAllCountsOrderedByDateDesc", testGetAllCountsOrderedByDateDesc},
		{"CountMutationsOnUnknownTrackable", testCountMutationsOnUnknownTrackable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func mustCreate(t *testing.T, s storage.Provider, name string, order int) models.Trackable {
	t.Helper()
	tr, err := s.CreateTrackable(name, "#FF9500", order)
	require.NoError(t, err)
	return tr
}

func ids(trackables []models.Trackable) []int64 {
	out := make([]int64, len(trackables))
	for i, tr := range trackables {
		out[i] = tr.ID
	}
	return out
}

func testCreateTrackableRoundTrip(t *testing.T, s storage.Provider) {
	created, err := s.CreateTrackable("Water", "#007AFF", 3)
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "Water", created.Name)
	assert.Equal(t, "#007AFF", created.Color)
	assert.Equal(t, 3, created.Order)

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created, all[0])
}

func testCreateTrackableAssignsFreshIDs(t *testing.T, s storage.Provider) {
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		tr := mustCreate(t, s, "Habit", -1)
		assert.Positive(t, tr.ID)
		assert.False(t, seen[tr.ID], "id %d assigned twice", tr.ID)
		seen[tr.ID] = true
	}
}

func testGetAllTrackablesEmpty(t *testing.T, s storage.Provider) {
	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testGetAllTrackablesOrdering(t *testing.T, s storage.Provider) {
	// Created in id order a < b < c < d with orders [2, -1, -1, 0]
	a := mustCreate(t, s, "a", 2)
	b := mustCreate(t, s, "b", -1)
	c := mustCreate(t, s, "c", -1)
	d := mustCreate(t, s, "d", 0)

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, c.ID, d.ID, a.ID}, ids(all))
}

func testUpdateTrackable(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Read", -1)
	other := mustCreate(t, s, "Walk", -1)

	tr.Name = "Read 20 pages"
	tr.Color = "#34C759"
	tr.Order = 5
	require.NoError(t, s.UpdateTrackable(tr))

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other, all[0])
	assert.Equal(t, tr, all[1])
}

func testUpdateTrackableNotFound(t *testing.T, s storage.Provider) {
	err := s.UpdateTrackable(models.Trackable{ID: 999, Name: "ghost", Color: "#FF9500", Order: -1})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testUpdateTrackableOrders(t *testing.T, s storage.Provider) {
	a := mustCreate(t, s, "a", -1)
	b := mustCreate(t, s, "b", -1)
	c := mustCreate(t, s, "c", -1)

	require.NoError(t, s.UpdateTrackableOrders([]models.OrderUpdate{
		{ID: a.ID, Order: 2},
		{ID: b.ID, Order: 0},
		{ID: c.ID, Order: 1},
	}))

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, c.ID, a.ID}, ids(all))
	assert.Equal(t, []int{0, 1, 2}, []int{all[0].Order, all[1].Order, all[2].Order})

	require.NoError(t, s.UpdateTrackableOrders(nil))
}

func testUpdateTrackableOrdersIsAllOrNothing(t *testing.T, s storage.Provider) {
	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", 1)

	err := s.UpdateTrackableOrders([]models.OrderUpdate{
		{ID: a.ID, Order: 9},
		{ID: 12345, Order: 3},
		{ID: b.ID, Order: 8},
	})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].Order)
	assert.Equal(t, 1, all[1].Order)
}

func testDeleteTrackableCascadesCounts(t *testing.T, s storage.Provider) {
	doomed := mustCreate(t, s, "doomed", -1)
	kept := mustCreate(t, s, "kept", -1)

	for _, date := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"} {
		_, err := s.IncrementCount(doomed.ID, date)
		require.NoError(t, err)
	}
	_, err := s.IncrementCount(kept.ID, "2024-03-01")
	require.NoError(t, err)

	counts, err := s.GetAllCounts(doomed.ID)
	require.NoError(t, err)
	require.Len(t, counts, 5)

	require.NoError(t, s.DeleteTrackable(doomed.ID))

	counts, err = s.GetAllCounts(doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)

	c, err := s.GetCount(doomed.ID, "2024-03-03")
	require.NoError(t, err)
	assert.Nil(t, c)

	counts, err = s.GetAllCounts(kept.ID)
	require.NoError(t, err)
	assert.Len(t, counts, 1)

	all, err := s.GetAllTrackables()
	require.NoError(t, err)
	assert.Equal(t, []int64{kept.ID}, ids(all))
}

func testDeleteTrackableNotFound(t *testing.T, s storage.Provider) {
	assert.ErrorIs(t, s.DeleteTrackable(42), errors.ErrNotFound)

	tr := mustCreate(t, s, "once", -1)
	require.NoError(t, s.DeleteTrackable(tr.ID))
	assert.ErrorIs(t, s.DeleteTrackable(tr.ID), errors.ErrNotFound)
}

func testGetCountAbsent(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Stretch", -1)

	c, err := s.GetCount(tr.ID, "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, c)

	counts, err := s.GetAllCounts(tr.ID)
	require.NoError(t, err)
	assert.Empty(t, counts, "GetCount must not create rows")
}

func testIncrementCount(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Pushups", -1)

	first, err := s.IncrementCount(tr.ID, "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, "2024-05-10", first.Date)
	assert.Equal(t, tr.ID, first.TrackableID)
	assert.Positive(t, first.ID)

	second, err := s.IncrementCount(tr.ID, "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetCount(tr.ID, "2024-05-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second, *got)
}

func testDecrementCountClampsAtZero(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Coffee", -1)

	fresh, err := s.DecrementCount(tr.ID, "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Count)

	got, err := s.GetCount(tr.ID, "2024-05-10")
	require.NoError(t, err)
	require.NotNil(t, got, "decrement creates the row at zero")
	assert.Equal(t, 0, got.Count)

	again, err := s.DecrementCount(tr.ID, "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Count)
	assert.Equal(t, fresh.ID, again.ID)
}

func testIncrementDecrementInterleaved(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Steps", -1)
	const day = "2024-06-01"

	steps := []struct {
		inc  bool
		want int
	}{
		{true, 1},
		{true, 2},
		{false, 1},
		{true, 2},
		{false, 1},
		{false, 0},
		{false, 0},
		{true, 1},
	}
	for i, step := range steps {
		var c models.Count
		var err error
		if step.inc {
			c, err = s.IncrementCount(tr.ID, day)
		} else {
			c, err = s.DecrementCount(tr.ID, day)
		}
		require.NoError(t, err)
		assert.Equal(t, step.want, c.Count, "step %d", i)
		assert.GreaterOrEqual(t, c.Count, 0)
	}
}

func testSetCountRoundTrip(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Water", -1)

	set, err := s.SetCount(tr.ID, "2024-02-29", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, set.Count)

	got, err := s.GetCount(tr.ID, "2024-02-29")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Count)

	overwritten, err := s.SetCount(tr.ID, "2024-02-29", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, overwritten.Count)
	assert.Equal(t, set.ID, overwritten.ID)

	inc, err := s.IncrementCount(tr.ID, "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 4, inc.Count)
}

func testSetCountDoesNotClamp(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Debt", -1)

	set, err := s.SetCount(tr.ID, "2024-01-15", -3)
	require.NoError(t, err)
	assert.Equal(t, -3, set.Count)

	got, err := s.GetCount(tr.ID, "2024-01-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, -3, got.Count)

	// Decrement restores the non-negative invariant
	dec, err := s.DecrementCount(tr.ID, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 0, dec.Count)
}

func testCountUniquenessPerDay(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Meditate", -1)
	const day = "2024-07-04"

	_, err := s.DecrementCount(tr.ID, day)
	require.NoError(t, err)
	_, err = s.IncrementCount(tr.ID, day)
	require.NoError(t, err)
	_, err = s.SetCount(tr.ID, day, 10)
	require.NoError(t, err)
	_, err = s.IncrementCount(tr.ID, day)
	require.NoError(t, err)
	_, err = s.DecrementCount(tr.ID, day)
	require.NoError(t, err)
	_, err = s.IncrementCount(tr.ID, "2024-07-05")
	require.NoError(t, err)

	counts, err := s.GetAllCounts(tr.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	perDay := map[string]int{}
	for _, c := range counts {
		perDay[c.Date]++
	}
	assert.Equal(t, map[string]int{day: 1, "2024-07-05": 1}, perDay)

	got, err := s.GetCount(tr.ID, day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Count)
}

func testGetAllCountsOrderedByDateDesc(t *testing.T, s storage.Provider) {
	tr := mustCreate(t, s, "Run", -1)
	other := mustCreate(t, s, "Swim", -1)

	for _, date := range []string{"2024-01-10", "2023-12-31", "2024-02-01", "2024-01-09"} {
		_, err := s.IncrementCount(tr.ID, date)
		require.NoError(t, err)
	}
	_, err := s.IncrementCount(other.ID, "2024-03-01")
	require.NoError(t, err)

	counts, err := s.GetAllCounts(tr.ID)
	require.NoError(t, err)

	dates := make([]string, len(counts))
	for i, c := range counts {
		dates[i] = c.Date
		assert.Equal(t, tr.ID, c.TrackableID)
	}
	assert.Equal(t, []string{"2024-02-01", "2024-01-10", "2024-01-09", "2023-12-31"}, dates)

	empty, err := s.GetAllCounts(987654)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testCountMutationsOnUnknownTrackable(t *testing.T, s storage.Provider) {
	const missing = int64(4040)

	_, err := s.IncrementCount(missing, "2024-01-01")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = s.DecrementCount(missing, "2024-01-01")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = s.SetCount(missing, "2024-01-01", 4)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	counts, err := s.GetAllCounts(missing)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
